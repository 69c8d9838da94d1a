package tikaserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// DefaultPort is Tika Server's standard port
const DefaultPort = 9998

// Server is a Tika Server process started from a jar.
type Server struct {
	cmd     *exec.Cmd
	url     string
	done    chan struct{}
	err     error
	tempDir string

	shutdownOnce sync.Once
}

// ServerOptions configures StartServer
type ServerOptions struct {
	// Java is the java executable. Default: "java"
	Java string

	// Host to bind. Default: "localhost"
	Host string

	// Port to listen on. Default: DefaultPort
	Port int

	// StartupTimeout bounds the wait for the server to answer. Default: 2 minutes
	StartupTimeout time.Duration

	// JVMArgs are passed to java before -jar
	JVMArgs []string

	// ConfigPath is a tika-server config file passed with -c. When empty,
	// StartServer writes one that turns on ReturnStackTrace.
	ConfigPath string

	// ReturnStackTrace makes error responses carry the exception chain, which
	// is how encrypted documents are told apart from other 422s. Default: true
	ReturnStackTrace bool
}

// ServerOption is a functional option for StartServer
type ServerOption func(*ServerOptions)

// WithJava sets the java executable
func WithJava(java string) ServerOption {
	return func(o *ServerOptions) {
		o.Java = java
	}
}

// WithPort sets the listen port
func WithPort(port int) ServerOption {
	return func(o *ServerOptions) {
		o.Port = port
	}
}

// WithStartupTimeout bounds the wait for the server to answer
func WithStartupTimeout(d time.Duration) ServerOption {
	return func(o *ServerOptions) {
		o.StartupTimeout = d
	}
}

// WithJVMArgs adds JVM arguments, e.g. "-Xmx1g"
func WithJVMArgs(args ...string) ServerOption {
	return func(o *ServerOptions) {
		o.JVMArgs = append(o.JVMArgs, args...)
	}
}

// WithConfigFile passes an existing tika-server config file
func WithConfigFile(path string) ServerOption {
	return func(o *ServerOptions) {
		o.ConfigPath = path
	}
}

// WithStackTraces turns exception chains in error responses on or off
func WithStackTraces(enabled bool) ServerOption {
	return func(o *ServerOptions) {
		o.ReturnStackTrace = enabled
	}
}

const serverConfigTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<properties>
  <server>
    <params>
      <returnStackTrace>%t</returnStackTrace>
    </params>
  </server>
</properties>
`

// writeServerConfig writes a tika-server config file into dir.
func writeServerConfig(dir string, returnStackTrace bool) (string, error) {
	path := filepath.Join(dir, "tika-server-config.xml")
	content := fmt.Sprintf(serverConfigTemplate, returnStackTrace)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("writing tika server config: %w", err)
	}
	return path, nil
}

// serverArgs builds the java command line.
func serverArgs(jarPath string, options ServerOptions) []string {
	args := append([]string{}, options.JVMArgs...)
	args = append(args, "-jar", jarPath, "--host", options.Host, "--port", strconv.Itoa(options.Port))
	if options.ConfigPath != "" {
		args = append(args, "-c", options.ConfigPath)
	}
	return args
}

// StartServer launches "java -jar jarPath" and waits until /version answers.
// ctx bounds only the startup wait; the process runs until Shutdown.
func StartServer(ctx context.Context, jarPath string, opts ...ServerOption) (*Server, error) {
	options := ServerOptions{
		Java:           "java",
		Host:           "localhost",
		Port:           DefaultPort,
		StartupTimeout:   2 * time.Minute,
		ReturnStackTrace: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if _, err := os.Stat(jarPath); err != nil {
		return nil, fmt.Errorf("tika server jar: %w", err)
	}

	var tempDir string
	if options.ConfigPath == "" && options.ReturnStackTrace {
		dir, err := os.MkdirTemp("", "tikakit-server-")
		if err != nil {
			return nil, fmt.Errorf("tika server config dir: %w", err)
		}
		path, err := writeServerConfig(dir, true)
		if err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
		tempDir = dir
		options.ConfigPath = path
	}

	cmd := exec.Command(options.Java, serverArgs(jarPath, options)...)
	if err := cmd.Start(); err != nil {
		if tempDir != "" {
			os.RemoveAll(tempDir)
		}
		return nil, fmt.Errorf("starting tika server: %w", err)
	}

	s := &Server{
		cmd:     cmd,
		url:     fmt.Sprintf("http://%s:%d", options.Host, options.Port),
		done:    make(chan struct{}),
		tempDir: tempDir,
	}
	go func() {
		s.err = cmd.Wait()
		close(s.done)
	}()

	waitCtx, cancel := context.WithTimeout(ctx, options.StartupTimeout)
	defer cancel()
	if err := s.waitReady(waitCtx); err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	return s, nil
}

// URL returns the server base URL
func (s *Server) URL() string {
	return s.url
}

// waitReady polls /version until it answers 200.
func (s *Server) waitReady(ctx context.Context) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	client := &http.Client{Timeout: 2 * time.Second}
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+pathVersion, nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for tika server: %w", ctx.Err())
		case <-s.done:
			return fmt.Errorf("tika server exited during startup: %v", s.err)
		case <-ticker.C:
		}
	}
}

// Shutdown stops the server process and waits for it to exit.
func (s *Server) Shutdown() error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.tempDir != "" {
			defer os.RemoveAll(s.tempDir)
		}
		select {
		case <-s.done:
			return
		default:
		}
		if killErr := s.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			err = killErr
			return
		}
		<-s.done
	})
	return err
}
