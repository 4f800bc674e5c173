package filestore

import (
	"strings"

	"github.com/koustreak/simpledb/internal/errs"
)

// Config holds the settings for the object store that receives archived
// audit files.
type Config struct {
	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string

	AccessKey string
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends (e.g. AWS S3).
	// Leave empty for MinIO.
	Region string

	// Bucket receives the archived files. It is created on first use.
	Bucket string

	// Prefix is prepended to every object key (e.g. "audit/").
	Prefix string
}

// Validate checks that the store can be reached and written to.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Endpoint) == "":
		return errs.New(errs.ErrKindInvalidInput, "archive endpoint is required")
	case c.AccessKey == "" || c.SecretKey == "":
		return errs.New(errs.ErrKindInvalidInput, "archive access_key and secret_key are required")
	case strings.TrimSpace(c.Bucket) == "":
		return errs.New(errs.ErrKindInvalidInput, "archive bucket is required")
	}
	return nil
}
