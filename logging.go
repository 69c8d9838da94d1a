package tikakit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingEngine wraps an Engine and logs every call with its duration.
// Successful calls log at debug level, failures at warn.
type LoggingEngine struct {
	engine Engine
	logger *logrus.Logger
}

// NewLoggingEngine creates a logging wrapper around engine. A nil logger
// uses the logrus standard logger.
func NewLoggingEngine(engine Engine, logger *logrus.Logger) *LoggingEngine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LoggingEngine{engine: engine, logger: logger}
}

// Unwrap returns the underlying Engine.
func (l *LoggingEngine) Unwrap() Engine {
	return l.engine
}

func (l *LoggingEngine) log(op, ref string, start time.Time, err error) {
	entry := l.logger.WithFields(logrus.Fields{
		"op":       op,
		"ref":      ref,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("engine call failed")
		return
	}
	entry.Debug("engine call")
}

func (l *LoggingEngine) ExtractText(ctx context.Context, ref string, opts *Options) (string, error) {
	start := time.Now()
	text, err := l.engine.ExtractText(ctx, ref, opts)
	l.log(OpText, ref, start, err)
	return text, err
}

func (l *LoggingEngine) ExtractXHTML(ctx context.Context, ref string, opts *Options) (string, error) {
	start := time.Now()
	xhtml, err := l.engine.ExtractXHTML(ctx, ref, opts)
	l.log(OpXHTML, ref, start, err)
	return xhtml, err
}

func (l *LoggingEngine) ExtractMeta(ctx context.Context, ref string, opts *Options) (Metadata, error) {
	start := time.Now()
	meta, err := l.engine.ExtractMeta(ctx, ref, opts)
	l.log(OpMeta, ref, start, err)
	return meta, err
}

func (l *LoggingEngine) DetectContentType(ctx context.Context, ref string) (string, error) {
	start := time.Now()
	contentType, err := l.engine.DetectContentType(ctx, ref)
	l.log(OpType, ref, start, err)
	return contentType, err
}

func (l *LoggingEngine) DetectCharset(ctx context.Context, ref string, opts *Options) (string, error) {
	start := time.Now()
	charset, err := l.engine.DetectCharset(ctx, ref, opts)
	l.log(OpCharset, ref, start, err)
	return charset, err
}

func (l *LoggingEngine) DetectContentTypeAndCharset(ctx context.Context, ref string) (string, error) {
	start := time.Now()
	result, err := l.engine.DetectContentTypeAndCharset(ctx, ref)
	l.log(OpTypeAndCharset, ref, start, err)
	return result, err
}

// DetectLanguage logs the text length rather than the text.
func (l *LoggingEngine) DetectLanguage(ctx context.Context, text string) (Language, error) {
	start := time.Now()
	lang, err := l.engine.DetectLanguage(ctx, text)
	l.log(OpLanguage, fmt.Sprintf("<%d chars>", RuneCount(text)), start, err)
	return lang, err
}

// Close closes the underlying engine when it holds resources.
func (l *LoggingEngine) Close() error {
	if closer, ok := l.engine.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Ping forwards to the underlying engine when it supports it.
func (l *LoggingEngine) Ping(ctx context.Context) error {
	if pinger, ok := l.engine.(CanPing); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

var _ Engine = (*LoggingEngine)(nil)
