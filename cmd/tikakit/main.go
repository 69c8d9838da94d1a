// Command tikakit extracts text, metadata and language from documents
// through a Tika-compatible engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	// Register engines, sources and caches
	_ "github.com/gobeaver/tikakit/cache/redis"
	_ "github.com/gobeaver/tikakit/engine/tikaserver"
	_ "github.com/gobeaver/tikakit/source/azure"
	_ "github.com/gobeaver/tikakit/source/ftp"
	_ "github.com/gobeaver/tikakit/source/gcs"
	_ "github.com/gobeaver/tikakit/source/local"
	_ "github.com/gobeaver/tikakit/source/memory"
	_ "github.com/gobeaver/tikakit/source/s3"
	_ "github.com/gobeaver/tikakit/source/sftp"
	_ "github.com/gobeaver/tikakit/source/web"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// parseLogLevel parses a logrus level name, defaulting to warn.
func parseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	if err := app.RunContext(ctx, os.Args); err != nil {
		red := color.New(color.FgRed, color.Bold).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
		stop()
		os.Exit(exitCode(err))
	}
}
