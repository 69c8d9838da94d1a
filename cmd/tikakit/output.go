package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gobeaver/tikakit"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type extractResult struct {
	Text     string           `json:"text" yaml:"text"`
	Metadata tikakit.Metadata `json:"metadata" yaml:"metadata"`
}

type languageResult struct {
	Language          string `json:"language" yaml:"language"`
	ReasonablyCertain bool   `json:"reasonablyCertain" yaml:"reasonablyCertain"`
}

func writeResult(w io.Writer, format string, result any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	case formatText, "":
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, result any) error {
	var err error
	switch v := result.(type) {
	case string:
		_, err = fmt.Fprintln(w, v)
	case tikakit.Metadata:
		err = writeMetadata(w, v)
	case extractResult:
		if err = writeMetadata(w, v.Metadata); err == nil {
			_, err = fmt.Fprintf(w, "\n%s\n", v.Text)
		}
	case languageResult:
		if v.ReasonablyCertain {
			_, err = fmt.Fprintln(w, v.Language)
		} else {
			_, err = fmt.Fprintf(w, "%s (uncertain)\n", v.Language)
		}
	default:
		_, err = fmt.Fprintf(w, "%v\n", v)
	}
	return err
}

func writeMetadata(w io.Writer, meta tikakit.Metadata) error {
	for _, field := range meta.Fields() {
		if _, err := fmt.Fprintf(w, "%s: %s\n", field, strings.Join(meta[field], ", ")); err != nil {
			return err
		}
	}
	return nil
}

func cutPair(kv string) (string, string, bool) {
	key, value, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	return key, value, ok && key != ""
}
