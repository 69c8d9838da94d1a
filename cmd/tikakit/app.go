package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gobeaver/tikakit"
	"github.com/gobeaver/tikakit/internal/httpapi"
	"github.com/gobeaver/tikakit/internal/mcptools"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"
)

// Exit codes
const (
	exitFailure   = 1
	exitEncrypted = 3
	exitNotFound  = 4
)

func exitCode(err error) int {
	switch {
	case tikakit.IsEncrypted(err):
		return exitEncrypted
	case tikakit.IsNotExist(err):
		return exitNotFound
	default:
		return exitFailure
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Value:   formatText,
		Usage:   "Output format (text, json or yaml)",
	}
}

func contentTypeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "content-type",
		Usage: "MIME type hint that skips detection",
	}
}

func docFlags() []cli.Flag {
	return []cli.Flag{
		formatFlag(),
		contentTypeFlag(),
		&cli.IntFlag{
			Name:  "max-length",
			Usage: "Maximum number of characters of text to return",
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Password for encrypted documents",
			EnvVars: []string{"TIKAKIT_PASSWORD"},
		},
		&cli.StringSliceFlag{
			Name:  "set",
			Usage: "Engine-specific option as key=value (repeatable)",
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "tikakit",
		Usage:   "Extract text, metadata and language from documents",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "Environment file loaded before configuration",
			},
			&cli.StringFlag{
				Name:    "tika-url",
				Usage:   "Tika server URL (overrides BEAVER_TIKAKIT_TIKA_URL)",
				EnvVars: []string{"TIKA_URL"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn or error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "text",
				Usage:     "Extract plain text",
				ArgsUsage: "REF",
				Flags:     docFlags(),
				Action: withClient(func(c *cli.Context, client *tikakit.Client, ref string) (any, error) {
					return client.Text(c.Context, ref, callOptions(c)...)
				}),
			},
			{
				Name:      "xhtml",
				Usage:     "Extract an HTML rendition",
				ArgsUsage: "REF",
				Flags:     docFlags(),
				Action: withClient(func(c *cli.Context, client *tikakit.Client, ref string) (any, error) {
					return client.XHTML(c.Context, ref, callOptions(c)...)
				}),
			},
			{
				Name:      "meta",
				Usage:     "Extract metadata",
				ArgsUsage: "REF",
				Flags:     docFlags(),
				Action: withClient(func(c *cli.Context, client *tikakit.Client, ref string) (any, error) {
					return client.Meta(c.Context, ref, callOptions(c)...)
				}),
			},
			{
				Name:      "extract",
				Usage:     "Extract text and metadata",
				ArgsUsage: "REF",
				Flags:     docFlags(),
				Action: withClient(func(c *cli.Context, client *tikakit.Client, ref string) (any, error) {
					text, meta, err := client.Extract(c.Context, ref, callOptions(c)...)
					if err != nil {
						return nil, err
					}
					return extractResult{Text: text, Metadata: meta}, nil
				}),
			},
			{
				Name:      "type",
				Usage:     "Detect the MIME type",
				ArgsUsage: "REF",
				Flags:     []cli.Flag{formatFlag()},
				Action: withClient(func(c *cli.Context, client *tikakit.Client, ref string) (any, error) {
					return client.Type(c.Context, ref)
				}),
			},
			{
				Name:      "charset",
				Usage:     "Detect the character encoding",
				ArgsUsage: "REF",
				Flags:     []cli.Flag{formatFlag(), contentTypeFlag()},
				Action: withClient(func(c *cli.Context, client *tikakit.Client, ref string) (any, error) {
					return client.Charset(c.Context, ref, callOptions(c)...)
				}),
			},
			{
				Name:      "type-and-charset",
				Usage:     "Detect \"type; charset=X\" in one pass",
				ArgsUsage: "REF",
				Flags:     []cli.Flag{formatFlag()},
				Action: withClient(func(c *cli.Context, client *tikakit.Client, ref string) (any, error) {
					return client.TypeAndCharset(c.Context, ref)
				}),
			},
			{
				Name:      "language",
				Usage:     "Identify the language of a text",
				ArgsUsage: "TEXT",
				Flags:     []cli.Flag{formatFlag()},
				Action: withClient(func(c *cli.Context, client *tikakit.Client, text string) (any, error) {
					lang, err := client.Language(c.Context, text)
					if err != nil {
						return nil, err
					}
					return languageResult{Language: lang.Code, ReasonablyCertain: lang.ReasonablyCertain}, nil
				}),
			},
			{
				Name:  "serve",
				Usage: "Serve the extraction API over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Value:   ":8080",
						Usage:   "Listen address",
						EnvVars: []string{"TIKAKIT_HTTP_ADDR"},
					},
					&cli.Float64Flag{
						Name:  "rate",
						Usage: "Requests per second allowed (0 disables limiting)",
					},
					&cli.IntFlag{
						Name:  "burst",
						Value: 10,
						Usage: "Rate limiter burst size",
					},
					&cli.BoolFlag{
						Name:  "allow-local-files",
						Usage: "Serve even when callers can read any local file",
					},
				},
				Action: serve,
			},
			{
				Name:  "mcp",
				Usage: "Serve the extraction tools over MCP stdio",
				Action: func(c *cli.Context) error {
					client, err := loadClient(c)
					if err != nil {
						return err
					}
					defer client.Close()
					return mcptools.ServeStdio(client, Version)
				},
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "server",
						Usage: "Also query the engine for its version",
					},
				},
				Action: printVersion,
			},
		},
	}
}

// loadClient reads the env file and builds a client from BEAVER_TIKAKIT_*
// configuration plus global flag overrides.
func loadClient(c *cli.Context) (*tikakit.Client, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return tikakit.New(cfg)
}

func loadConfig(c *cli.Context) (*tikakit.Config, error) {
	if err := godotenv.Load(c.String("env-file")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", c.String("env-file"), err)
	}

	cfg, err := tikakit.GetConfig()
	if err != nil {
		return nil, err
	}
	if url := c.String("tika-url"); url != "" {
		cfg.TikaURL = url
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
		cfg.LogRequests = true
	}
	return cfg, nil
}

var errUnconfinedFiles = errors.New("the file source is enabled without TIKAKIT_LOCAL_BASE_PATH or TIKAKIT_ALLOWED_PATTERNS, " +
	"so any caller could read any local file; confine it, drop file from TIKAKIT_SOURCES, or pass --allow-local-files")

// checkFileExposure refuses a network-facing setup in which callers can
// name arbitrary local paths.
func checkFileExposure(cfg *tikakit.Config) error {
	if !containsFold(cfg.SourceSchemes(), tikakit.SchemeFile) {
		return nil
	}
	if strings.TrimSpace(cfg.LocalBasePath) != "" || strings.TrimSpace(cfg.AllowedPatterns) != "" {
		return nil
	}
	if schemes := strings.TrimSpace(cfg.AllowedSchemes); schemes != "" && !containsFold(strings.Split(schemes, ","), tikakit.SchemeFile) {
		return nil
	}
	return errUnconfinedFiles
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

type action func(c *cli.Context, client *tikakit.Client, arg string) (any, error)

func withClient(fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		arg := c.Args().First()
		if arg == "" {
			return fmt.Errorf("%s: missing argument, usage: tikakit %s %s", c.Command.Name, c.Command.Name, c.Command.ArgsUsage)
		}
		client, err := loadClient(c)
		if err != nil {
			return err
		}
		defer client.Close()

		result, err := fn(c, client, arg)
		if err != nil {
			return err
		}
		return writeResult(c.App.Writer, c.String("output"), result)
	}
}

func callOptions(c *cli.Context) []tikakit.Option {
	var opts []tikakit.Option
	if c.IsSet("max-length") {
		opts = append(opts, tikakit.WithMaxLength(c.Int("max-length")))
	}
	if pw := c.String("password"); pw != "" {
		opts = append(opts, tikakit.WithPassword(pw))
	}
	if ct := c.String("content-type"); ct != "" {
		opts = append(opts, tikakit.WithContentType(ct))
	}
	for _, kv := range c.StringSlice("set") {
		if key, value, ok := cutPair(kv); ok {
			opts = append(opts, tikakit.WithExtra(key, value))
		}
	}
	return opts
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := checkFileExposure(cfg); err != nil && !c.Bool("allow-local-files") {
		return err
	}
	client, err := tikakit.New(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	logger := logrus.New()
	logger.SetLevel(parseLogLevel(c.String("log-level")))
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	router := httpapi.NewRouter(httpapi.NewAPI(client, logger), httpapi.RouterOptions{
		RateLimit: rate.Limit(c.Float64("rate")),
		Burst:     c.Int("burst"),
	})
	srv := &http.Server{
		Addr:              c.String("addr"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-c.Context.Done():
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

type versioner interface {
	Version(ctx context.Context) (string, error)
}

type unwrapper interface {
	Unwrap() tikakit.Engine
}

func printVersion(c *cli.Context) error {
	w := c.App.Writer
	fmt.Fprintf(w, "tikakit version %s\n", Version)
	fmt.Fprintf(w, "Commit: %s\n", Commit)
	fmt.Fprintf(w, "Built: %s\n", BuildDate)
	if !c.Bool("server") {
		return nil
	}

	client, err := loadClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	engine := client.Engine()
	for {
		if v, ok := engine.(versioner); ok {
			version, err := v.Version(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Engine: %s\n", version)
			return nil
		}
		u, ok := engine.(unwrapper)
		if !ok {
			return errors.New("engine does not report a version")
		}
		engine = u.Unwrap()
	}
}
