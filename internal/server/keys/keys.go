// Package keys resolves the token signing key once at startup.
//
// Sources are tried in order: an object in S3-compatible storage, a local
// file, the configured secret, and finally a freshly generated random key.
// Whatever the source, keys shorter than auth.MinKeyLen are rejected.
package keys

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
)

// Source names where a key came from; safe to log.
type Source string

const (
	SourceS3        Source = "s3"
	SourceFile      Source = "file"
	SourceSecret    Source = "secret"
	SourceGenerated Source = "generated"
)

// maxKeySize bounds what is read from a file or bucket object.
const maxKeySize = 4096

// ObjectGetter is the part of the S3 client used to fetch the key object.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// newS3Client is replaced in tests.
var newS3Client = func(ctx context.Context, cfg *config.Config) (ObjectGetter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Load returns the signing key and the source it came from.
func Load(ctx context.Context, cfg *config.Config) ([]byte, Source, error) {
	var (
		key    []byte
		source Source
		err    error
	)

	switch {
	case cfg.SigningKeyS3Bucket != "" && cfg.SigningKeyS3Object != "":
		source = SourceS3
		key, err = fromS3(ctx, cfg)
	case cfg.SigningKeyFile != "":
		source = SourceFile
		key, err = fromFile(cfg.SigningKeyFile)
	case cfg.SecretKey != "":
		source = SourceSecret
		key = []byte(cfg.SecretKey)
	default:
		source = SourceGenerated
		key, err = common.GenerateRandByteArray(auth.MinKeyLen)
	}
	if err != nil {
		return nil, source, fmt.Errorf("signing key from %s: %w", source, err)
	}

	if len(key) < auth.MinKeyLen {
		return nil, source, fmt.Errorf("signing key from %s is %d bytes, need at least %d", source, len(key), auth.MinKeyLen)
	}

	return key, source, nil
}

func fromFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readKey(f)
}

func fromS3(ctx context.Context, cfg *config.Config) ([]byte, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(cfg.SigningKeyS3Bucket),
		Key:    aws.String(cfg.SigningKeyS3Object),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return readKey(out.Body)
}

// readKey trims surrounding whitespace so keys written with a trailing
// newline work.
func readKey(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxKeySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxKeySize {
		return nil, fmt.Errorf("key is larger than %d bytes", maxKeySize)
	}
	return bytes.TrimSpace(data), nil
}
