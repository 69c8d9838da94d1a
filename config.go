package tikakit

import (
	"strings"

	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Engine to use (tika)
	Engine string `env:"TIKAKIT_ENGINE,default:tika"`

	// Tika Server engine configuration
	TikaURL            string `env:"TIKAKIT_TIKA_URL,default:http://localhost:9998"`
	TikaTimeoutSeconds int    `env:"TIKAKIT_TIKA_TIMEOUT_SECONDS,default:60"`
	TikaJarPath        string `env:"TIKAKIT_TIKA_JAR_PATH"` // Start a local server from this jar when set

	// Comma-separated reference schemes to enable. Empty enables DefaultSources.
	Sources string `env:"TIKAKIT_SOURCES"`

	// Local source configuration
	LocalBasePath string `env:"TIKAKIT_LOCAL_BASE_PATH"` // Empty means unconfined

	// Web source configuration
	HTTPUserAgent      string `env:"TIKAKIT_HTTP_USER_AGENT,default:tikakit"`
	HTTPTimeoutSeconds int    `env:"TIKAKIT_HTTP_TIMEOUT_SECONDS,default:30"`

	// FTP source configuration
	FTPTimeoutSeconds int    `env:"TIKAKIT_FTP_TIMEOUT_SECONDS,default:30"`
	FTPUsername       string `env:"TIKAKIT_FTP_USERNAME,default:anonymous"`
	FTPPassword       string `env:"TIKAKIT_FTP_PASSWORD,default:anonymous"`

	// SFTP source configuration
	SFTPUsername   string `env:"TIKAKIT_SFTP_USERNAME"`
	SFTPPassword   string `env:"TIKAKIT_SFTP_PASSWORD"`
	SFTPPrivateKey string `env:"TIKAKIT_SFTP_PRIVATE_KEY"` // Path to private key file
	SFTPKnownHosts string `env:"TIKAKIT_SFTP_KNOWN_HOSTS"` // Path to known_hosts file

	// S3 source configuration
	S3Region          string `env:"TIKAKIT_S3_REGION,default:us-east-1"`
	S3Endpoint        string `env:"TIKAKIT_S3_ENDPOINT"`
	S3AccessKeyID     string `env:"TIKAKIT_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"TIKAKIT_S3_SECRET_ACCESS_KEY"`
	S3ForcePathStyle  bool   `env:"TIKAKIT_S3_FORCE_PATH_STYLE,default:false"`

	// GCS (Google Cloud Storage) source configuration
	GCSCredentialsFile string `env:"TIKAKIT_GCS_CREDENTIALS_FILE"` // Path to service account JSON

	// Azure Blob Storage source configuration
	AzureAccountName string `env:"TIKAKIT_AZURE_ACCOUNT_NAME"`
	AzureAccountKey  string `env:"TIKAKIT_AZURE_ACCOUNT_KEY"`
	AzureEndpoint    string `env:"TIKAKIT_AZURE_ENDPOINT"` // Optional custom endpoint

	// Default per-call options
	DefaultMaxLength int `env:"TIKAKIT_DEFAULT_MAX_LENGTH,default:0"`

	// Largest document accepted from any source, in bytes (0 = unlimited)
	MaxDocumentBytes int64 `env:"TIKAKIT_MAX_DOCUMENT_BYTES,default:0"`

	// Result cache
	CacheEnabled    bool   `env:"TIKAKIT_CACHE_ENABLED,default:false"`
	CacheBackend    string `env:"TIKAKIT_CACHE_BACKEND,default:memory"`
	CacheTTLSeconds int    `env:"TIKAKIT_CACHE_TTL_SECONDS,default:300"`
	CacheKeyPrefix  string `env:"TIKAKIT_CACHE_KEY_PREFIX,default:tikakit:"`
	RedisAddr       string `env:"TIKAKIT_REDIS_ADDR,default:localhost:6379"`
	RedisPassword   string `env:"TIKAKIT_REDIS_PASSWORD"`
	RedisDB         int    `env:"TIKAKIT_REDIS_DB,default:0"`

	// Logging
	LogRequests bool   `env:"TIKAKIT_LOG_REQUESTS,default:false"`
	LogLevel    string `env:"TIKAKIT_LOG_LEVEL,default:info"`

	// Access policy
	AllowedSchemes  string `env:"TIKAKIT_ALLOWED_SCHEMES"`  // comma-separated
	AllowedPatterns string `env:"TIKAKIT_ALLOWED_PATTERNS"` // comma-separated globs over "scheme://host/path"
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultSources are the schemes enabled when Config.Sources is empty
const DefaultSources = "file,http,https,ftp"

// SourceSchemes returns the enabled schemes
func (c *Config) SourceSchemes() []string {
	if strings.TrimSpace(c.Sources) == "" {
		return splitList(DefaultSources)
	}
	return splitList(c.Sources)
}

// splitList splits a comma-separated list, trimming blanks
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
