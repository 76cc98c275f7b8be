package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":3000", c.EndpointAddrHTTP)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Empty(t, c.DatabaseDSN)
	assert.Empty(t, c.SecretKey)
	assert.Equal(t, 1*time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, 3, c.HashTime)
	assert.Equal(t, 64*1024, c.HashMemoryKiB)
	assert.Equal(t, 2, c.HashThreads)
	assert.Equal(t, 8, c.PasswordMinLength)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.NoError(t, c.Validate())
}

func TestLoad_DefaultsWithoutArgs(t *testing.T) {
	c, err := Load(nil)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(defaults(), *c))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "server.yaml", strings.Join([]string{
		`endpoint_addr_http: "127.0.0.1:8080"`,
		"database_dsn: postgres://u:p@db:5432/auth",
		"access_token_validity_duration: 90s",
		"hash_workers: 4",
		"log_level: debug",
		"signing_key_s3_bucket: keys",
		"signing_key_s3_object: jwt.key",
	}, "\n"))

	c, err := Load([]string{"-c", path})
	require.NoError(t, err)

	want := defaults()
	want.EndpointAddrHTTP = "127.0.0.1:8080"
	want.DatabaseDSN = "postgres://u:p@db:5432/auth"
	want.AccessTokenValidityDuration = 90 * time.Second
	want.HashWorkers = 4
	want.LogLevel = "debug"
	want.SigningKeyS3Bucket = "keys"
	want.SigningKeyS3Object = "jwt.key"

	assert.Empty(t, cmp.Diff(want, *c))
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeFile(t, "server.json", `{
  "endpoint_addr_grpc": ":6000",
  "secret_key": "0123456789abcdef0123456789abcdef",
  "shutdown_timeout": "3s",
  "password_min_length": 12
}`)

	c, err := Load([]string{"-config=" + path})
	require.NoError(t, err)

	want := defaults()
	want.EndpointAddrGRPC = ":6000"
	want.SecretKey = "0123456789abcdef0123456789abcdef"
	want.ShutdownTimeout = 3 * time.Second
	want.PasswordMinLength = 12

	assert.Empty(t, cmp.Diff(want, *c))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "server.yaml", strings.Join([]string{
		`endpoint_addr_http: ":1111"`,
		`endpoint_addr_grpc: ":2222"`,
		"database_dsn: from-file",
		"log_level: warn",
	}, "\n"))

	t.Setenv("AUTHKEEPER_ENDPOINT_ADDR_GRPC", ":3333")
	t.Setenv("AUTHKEEPER_DATABASE_DSN", "from-env")
	t.Setenv("AUTHKEEPER_HASH_TIME", "5")
	t.Setenv("AUTHKEEPER_READ_TIMEOUT", "2s")

	c, err := Load([]string{"-c", path, "-d", "from-flag", "-t", "15", "-unrelated", "x"})
	require.NoError(t, err)

	want := defaults()
	want.EndpointAddrHTTP = ":1111"    // file
	want.LogLevel = "warn"             // file
	want.EndpointAddrGRPC = ":3333"    // env beats file
	want.HashTime = 5                  // env
	want.ReadTimeout = 2 * time.Second // env
	want.DatabaseDSN = "from-flag"     // flag beats env and file
	want.AccessTokenValidityDuration = 15 * time.Minute

	assert.Empty(t, cmp.Diff(want, *c))
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "zero ttl", args: []string{"-t", "0"}},
		{name: "negative workers", args: []string{"-w=-1"}},
		{name: "bucket without object", env: map[string]string{"AUTHKEEPER_SIGNING_KEY_S3_BUCKET": "b"}},
		{name: "too many threads", env: map[string]string{"AUTHKEEPER_HASH_THREADS": "300"}},
		{name: "bad duration", env: map[string]string{"AUTHKEEPER_SHUTDOWN_TIMEOUT": "soon"}},
		{name: "unparsable body size", env: map[string]string{"AUTHKEEPER_MAX_BODY_SIZE": "lots"}},
		{name: "zero body size", env: map[string]string{"AUTHKEEPER_MAX_BODY_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.args)
			assert.Error(t, err)
		})
	}
}
