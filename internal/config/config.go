package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for keksly.
type Config struct {
	Origin     string           `toml:"origin"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	DoNotTrack bool             `toml:"dnt"`
	Storage    StorageConfig    `toml:"storage"`
	Source     SourceConfig     `toml:"source"`
	Encryption EncryptionConfig `toml:"encryption"`
	Server     ServerConfig     `toml:"server"`
}

// StorageConfig represents configuration for the consent persistence backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type      string `toml:"type"`                // "memory", "filesystem", "cookie", "sqlite" or "s3"
	Dir       string `toml:"dir,omitempty"`       // filesystem, cookie and sqlite
	Encrypted bool   `toml:"encrypted,omitempty"` // seal values with the age key pair

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// SourceConfig names where override configuration comes from.
// InlinePath and File take priority over URL; HTMLPath may supply either.
type SourceConfig struct {
	InlinePath string   `toml:"inline_path,omitempty"` // script defining window.KekslyConfig
	File       string   `toml:"file,omitempty"`        // JSON or YAML override document
	URL        string   `toml:"url,omitempty"`         // remote JSON document
	HTMLPath   string   `toml:"html_path,omitempty"`   // page to read inline config or data-config from
	Timeout    Duration `toml:"timeout,omitempty"`     // remote fetch deadline, defaults to 5s
}

// EncryptionConfig holds paths to the age key pair used for sealed storage.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// ServerConfig configures `keksly serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration that reads and writes TOML strings like "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultFetchTimeout bounds the remote config fetch when no timeout is set.
const DefaultFetchTimeout = 5 * time.Second

// FetchTimeout returns the configured timeout or DefaultFetchTimeout.
func (s SourceConfig) FetchTimeout() time.Duration {
	if s.Timeout.Duration <= 0 {
		return DefaultFetchTimeout
	}
	return s.Timeout.Duration
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(origin, baseDir string) *Config {
	return &Config{
		Origin:  origin,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Storage: StorageConfig{
			Type: "filesystem",
			Dir:  filepath.Join(baseDir, "store"),
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "keksly.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "keksly.key"),
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
