// Package sftp opens "sftp" references over SSH. Connections are kept per
// user and host and reused across documents.
package sftp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path"
	"sync"

	"github.com/gobeaver/tikakit"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultPort = "22"

// Config holds SFTP connection configuration
type Config struct {
	Username   string // Used when the reference carries no user
	Password   string
	PrivateKey []byte // PEM encoded private key

	// KnownHostsFile enables host key verification. Without it host keys
	// are not checked.
	KnownHostsFile string
}

// connection is one SSH session with its SFTP client
type connection struct {
	client  *sftp.Client
	sshConn *ssh.Client
}

// Adapter opens documents from SFTP servers
type Adapter struct {
	mu      sync.Mutex
	conns   map[string]*connection
	config  Config
	auth    []ssh.AuthMethod
	hostKey ssh.HostKeyCallback
}

// New creates an SFTP source. No connection is made until the first Open.
func New(cfg Config) (*Adapter, error) {
	a := &Adapter{
		conns:  make(map[string]*connection),
		config: cfg,
	}

	if len(cfg.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		a.auth = append(a.auth, ssh.PublicKeys(signer))
	}

	if cfg.Password != "" {
		a.auth = append(a.auth, ssh.Password(cfg.Password))
	}

	a.hostKey = ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		a.hostKey = cb
	}

	return a, nil
}

// target returns the dial address, user and auth methods for ref. A password
// in the reference is tried before the configured methods.
func (a *Adapter) target(ref *tikakit.Reference) (string, string, []ssh.AuthMethod) {
	addr := ref.URL.Host
	if ref.URL.Port() == "" {
		addr = net.JoinHostPort(ref.URL.Hostname(), defaultPort)
	}

	user := a.config.Username
	auth := a.auth
	if ref.URL.User != nil {
		user = ref.URL.User.Username()
		if password, ok := ref.URL.User.Password(); ok {
			auth = append([]ssh.AuthMethod{ssh.Password(password)}, a.auth...)
		}
	}
	return addr, user, auth
}

// client returns a live SFTP client for ref, dialing when needed.
func (a *Adapter) client(ref *tikakit.Reference) (*sftp.Client, error) {
	addr, user, auth := a.target(ref)
	if len(auth) == 0 {
		return nil, errors.New("no authentication method provided")
	}
	key := user + "@" + addr

	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.conns[key]; ok {
		// Probe the session; drop it when the server has gone away.
		if _, err := c.client.Getwd(); err == nil {
			return c.client, nil
		}
		c.close()
		delete(a.conns, key)
	}

	sshConfig := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: a.hostKey,
	}

	sshConn, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SSH: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}

	a.conns[key] = &connection{client: sftpClient, sshConn: sshConn}
	return sftpClient, nil
}

// Open implements tikakit.Source
func (a *Adapter) Open(ctx context.Context, ref *tikakit.Reference) (*tikakit.Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	client, err := a.client(ref)
	if err != nil {
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: err}
	}

	f, err := client.Open(ref.Path)
	if err != nil {
		return nil, mapSFTPError(ref.Raw, err)
	}

	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	return &tikakit.Document{
		Name: path.Base(ref.Path),
		Size: size,
		Body: f,
	}, nil
}

// Close closes every open connection
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for key, c := range a.conns {
		if err := c.close(); err != nil {
			errs = append(errs, err)
		}
		delete(a.conns, key)
	}
	return errors.Join(errs...)
}

func (c *connection) close() error {
	var errs []error
	if err := c.client.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.sshConn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func mapSFTPError(ref string, err error) error {
	if os.IsNotExist(err) {
		return &tikakit.ProcessingError{
			Op:  "open",
			Ref: ref,
			Err: tikakit.ErrNotExist,
		}
	}

	var statusErr *sftp.StatusError
	if errors.As(err, &statusErr) && statusErr.FxCode() == sftp.ErrSSHFxNoSuchFile {
		return &tikakit.ProcessingError{
			Op:  "open",
			Ref: ref,
			Err: tikakit.ErrNotExist,
		}
	}

	return &tikakit.ProcessingError{
		Op:  "open",
		Ref: ref,
		Err: err,
	}
}

var _ tikakit.Source = (*Adapter)(nil)
