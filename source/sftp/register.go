package sftp

import (
	"fmt"
	"os"

	"github.com/gobeaver/tikakit"
)

func init() {
	tikakit.RegisterSource("sftp", func(cfg *tikakit.Config) (tikakit.Source, error) {
		sftpConfig := Config{
			Username:       cfg.SFTPUsername,
			Password:       cfg.SFTPPassword,
			KnownHostsFile: cfg.SFTPKnownHosts,
		}

		// Load private key if specified
		if cfg.SFTPPrivateKey != "" {
			keyData, err := os.ReadFile(cfg.SFTPPrivateKey)
			if err != nil {
				return nil, fmt.Errorf("failed to read private key: %w", err)
			}
			sftpConfig.PrivateKey = keyData
		}

		return New(sftpConfig)
	})
}
