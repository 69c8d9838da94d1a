// Package mcptools exposes a tikakit.Client as Model Context Protocol tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gobeaver/tikakit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names
const (
	ToolExtractText     = "extract_text"
	ToolExtractMetadata = "extract_metadata"
	ToolDetectType      = "detect_type"
	ToolDetectLanguage  = "detect_language"
)

// Handler serves tool calls against a client
type Handler struct {
	client *tikakit.Client
}

// NewHandler creates a tool handler.
func NewHandler(client *tikakit.Client) *Handler {
	return &Handler{client: client}
}

// NewServer builds an MCP server with every extraction tool registered.
func NewServer(client *tikakit.Client, version string) *server.MCPServer {
	h := NewHandler(client)
	s := server.NewMCPServer("tikakit", version)

	s.AddTool(mcp.NewTool(ToolExtractText,
		mcp.WithDescription("Extracts the plain text of a document."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Document reference: a path or a file, http(s) or ftp URL.")),
		mcp.WithNumber("max_length", mcp.Description("Maximum number of characters to return.")),
		mcp.WithString("password", mcp.Description("Password for encrypted documents.")),
	), h.HandleExtractText)

	s.AddTool(mcp.NewTool(ToolExtractMetadata,
		mcp.WithDescription("Extracts document metadata as a JSON object of string lists."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Document reference.")),
		mcp.WithString("password", mcp.Description("Password for encrypted documents.")),
		mcp.WithString("content_type", mcp.Description("MIME type hint that skips detection.")),
	), h.HandleExtractMetadata)

	s.AddTool(mcp.NewTool(ToolDetectType,
		mcp.WithDescription("Detects the MIME type of a document, with its charset when known."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Document reference.")),
	), h.HandleDetectType)

	s.AddTool(mcp.NewTool(ToolDetectLanguage,
		mcp.WithDescription("Identifies the language of a text as an ISO 639-1 code."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to identify.")),
	), h.HandleDetectLanguage)

	return s
}

// ServeStdio runs the MCP server over stdin and stdout until it fails.
func ServeStdio(client *tikakit.Client, version string) error {
	return server.ServeStdio(NewServer(client, version))
}

func callOptions(request mcp.CallToolRequest) []tikakit.Option {
	var opts []tikakit.Option
	if n := request.GetInt("max_length", 0); n > 0 {
		opts = append(opts, tikakit.WithMaxLength(n))
	}
	if pw := request.GetString("password", ""); pw != "" {
		opts = append(opts, tikakit.WithPassword(pw))
	}
	if ct := request.GetString("content_type", ""); ct != "" {
		opts = append(opts, tikakit.WithContentType(ct))
	}
	return opts
}

// HandleExtractText handles extract_text.
func (h *Handler) HandleExtractText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := h.client.Text(ctx, ref, callOptions(request)...)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleExtractMetadata handles extract_metadata.
func (h *Handler) HandleExtractMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	meta, err := h.client.Meta(ctx, ref, callOptions(request)...)
	if err != nil {
		return toolError(err), nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// HandleDetectType handles detect_type.
func (h *Handler) HandleDetectType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := h.client.TypeAndCharset(ctx, ref)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(result), nil
}

// HandleDetectLanguage handles detect_language.
func (h *Handler) HandleDetectLanguage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lang, err := h.client.Language(ctx, text)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(lang.Code), nil
}

func toolError(err error) *mcp.CallToolResult {
	switch {
	case tikakit.IsEncrypted(err):
		return mcp.NewToolResultError(fmt.Sprintf("document is encrypted; supply a password: %v", err))
	case tikakit.IsNotExist(err):
		return mcp.NewToolResultError(fmt.Sprintf("document not found: %v", err))
	case tikakit.IsNotAllowed(err):
		return mcp.NewToolResultError(fmt.Sprintf("reference not allowed: %v", err))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
