// Package ftp opens "ftp" references with github.com/jlaffaye/ftp. Each Open
// uses its own control connection, closed together with the document body.
package ftp

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"path"
	"time"

	"github.com/gobeaver/tikakit"
	"github.com/jlaffaye/ftp"
)

const defaultPort = "21"

// Config holds FTP connection settings
type Config struct {
	// Username and Password are used when the reference carries no user info.
	// Default: anonymous / anonymous
	Username string
	Password string

	// Timeout bounds dialing and each control command
	Timeout time.Duration
}

// Adapter opens documents from FTP servers
type Adapter struct {
	cfg Config
}

// New creates an FTP source
func New(cfg Config) *Adapter {
	if cfg.Username == "" {
		cfg.Username = "anonymous"
		if cfg.Password == "" {
			cfg.Password = "anonymous"
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Adapter{cfg: cfg}
}

// credentials returns the login for ref
func (a *Adapter) credentials(ref *tikakit.Reference) (string, string) {
	if ref.URL != nil && ref.URL.User != nil {
		password, _ := ref.URL.User.Password()
		return ref.URL.User.Username(), password
	}
	return a.cfg.Username, a.cfg.Password
}

// Open implements tikakit.Source
func (a *Adapter) Open(ctx context.Context, ref *tikakit.Reference) (*tikakit.Document, error) {
	addr := ref.URL.Host
	if ref.URL.Port() == "" {
		addr = net.JoinHostPort(ref.URL.Hostname(), defaultPort)
	}

	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(a.cfg.Timeout))
	if err != nil {
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: err}
	}

	user, password := a.credentials(ref)
	if err := conn.Login(user, password); err != nil {
		_ = conn.Quit()
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: err}
	}

	size := int64(-1)
	if n, err := conn.FileSize(ref.Path); err == nil {
		size = n
	}

	resp, err := conn.Retr(ref.Path)
	if err != nil {
		_ = conn.Quit()
		if isFileUnavailable(err) {
			return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: tikakit.ErrNotExist}
		}
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: err}
	}

	return &tikakit.Document{
		Name: path.Base(ref.Path),
		Size: size,
		Body: &body{resp: resp, conn: conn},
	}, nil
}

// body closes the data transfer and then the control connection
type body struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (b *body) Read(p []byte) (int, error) {
	return b.resp.Read(p)
}

func (b *body) Close() error {
	err := b.resp.Close()
	if quitErr := b.conn.Quit(); err == nil {
		err = quitErr
	}
	return err
}

func isFileUnavailable(err error) bool {
	var tpErr *textproto.Error
	return errors.As(err, &tpErr) && tpErr.Code == ftp.StatusFileUnavailable
}

var _ tikakit.Source = (*Adapter)(nil)
