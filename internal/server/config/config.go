// Package config handles configuration for the server component:
// defaults, an optional YAML/JSON file, AUTHKEEPER_* environment variables
// and command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/labstack/gommon/bytes"
)

// Config holds runtime settings for the authkeeper server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses of the two transports.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory stores.
//   - RedisURL: optional redis:// URL; when set, revoked token ids live there.
//   - SecretKey, SigningKeyFile, SigningKeyS3*: token signing key sources,
//     see package keys for the resolution order.
//   - S3RootUser / S3RootPassword / S3Region / S3BaseEndpoint: S3-compatible
//     storage settings used when the key lives in a bucket.
//   - AccessTokenValidityDuration: token lifetime.
//   - Hash*: Argon2id work factor and the size of the hashing pool.
//   - PasswordMinLength: shortest acceptable password at signup.
type Config struct {
	EndpointAddrHTTP string `koanf:"endpoint_addr_http"`
	EndpointAddrGRPC string `koanf:"endpoint_addr_grpc"`
	DatabaseDSN      string `koanf:"database_dsn"`
	RedisURL         string `koanf:"redis_url"`

	SecretKey          string `koanf:"secret_key"`
	SigningKeyFile     string `koanf:"signing_key_file"`
	SigningKeyS3Bucket string `koanf:"signing_key_s3_bucket"`
	SigningKeyS3Object string `koanf:"signing_key_s3_object"`
	S3RootUser         string `koanf:"s3_root_user"`
	S3RootPassword     string `koanf:"s3_root_password"`
	S3Region           string `koanf:"s3_region"`
	S3BaseEndpoint     string `koanf:"s3_base_endpoint"`

	AccessTokenValidityDuration time.Duration `koanf:"access_token_validity_duration"`

	HashTime          int `koanf:"hash_time"`
	HashMemoryKiB     int `koanf:"hash_memory_kib"`
	HashThreads       int `koanf:"hash_threads"`
	HashWorkers       int `koanf:"hash_workers"`
	PasswordMinLength int `koanf:"password_min_length"`

	LogLevel                string        `koanf:"log_level"`
	ShutdownTimeout         time.Duration `koanf:"shutdown_timeout"`
	ReadTimeout             time.Duration `koanf:"read_timeout"`
	WriteTimeout            time.Duration `koanf:"write_timeout"`
	MaxBodySize             string        `koanf:"max_body_size"`
	RevocationPurgeInterval time.Duration `koanf:"revocation_purge_interval"`
}

// LoadDefaults populates Config with development defaults. With no DSN and
// no key source the server runs fully in memory and signs with a key that
// dies with the process.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":3000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.RedisURL = ""
	c.SecretKey = ""
	c.SigningKeyFile = ""
	c.SigningKeyS3Bucket = ""
	c.SigningKeyS3Object = ""
	c.S3RootUser = ""
	c.S3RootPassword = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.AccessTokenValidityDuration = 1 * time.Hour
	c.HashTime = 3
	c.HashMemoryKiB = 64 * 1024
	c.HashThreads = 2
	c.HashWorkers = 0
	c.PasswordMinLength = 8
	c.LogLevel = "info"
	c.ShutdownTimeout = 10 * time.Second
	c.ReadTimeout = 10 * time.Second
	c.WriteTimeout = 30 * time.Second
	c.MaxBodySize = "64K"
	c.RevocationPurgeInterval = 5 * time.Minute
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.EndpointAddrHTTP == "" {
		errs = append(errs, errors.New("http endpoint address is empty"))
	}
	if c.EndpointAddrGRPC == "" {
		errs = append(errs, errors.New("grpc endpoint address is empty"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, fmt.Errorf("access token validity must be positive, got %s", c.AccessTokenValidityDuration))
	}
	if c.HashTime <= 0 || c.HashMemoryKiB <= 0 || c.HashThreads <= 0 || c.HashThreads > 255 {
		errs = append(errs, errors.New("hash time, memory and threads must be positive (threads at most 255)"))
	}
	if c.HashWorkers < 0 {
		errs = append(errs, errors.New("hash workers must not be negative"))
	}
	if c.PasswordMinLength < 1 {
		errs = append(errs, errors.New("password min length must be at least 1"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	if c.RevocationPurgeInterval <= 0 {
		errs = append(errs, errors.New("revocation purge interval must be positive"))
	}
	if c.MaxBodySize != "" {
		if n, err := bytes.Parse(c.MaxBodySize); err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("max body size %q is not a positive size like 64K", c.MaxBodySize))
		}
	}
	if (c.SigningKeyS3Bucket == "") != (c.SigningKeyS3Object == "") {
		errs = append(errs, errors.New("signing key s3 bucket and object must be set together"))
	}

	return errors.Join(errs...)
}

// Load builds a Config from defaults, then the file named by -c/-config in
// args, then the environment, then the flags in args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadFileAndEnv(cfg, configFilePath(args)); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadConfig is Load over the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}
