package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// WithEnv applies environment variable overrides using the provided
// prefix.
//
// Environment variable mapping:
//
//	PORT, ENVIRONMENT - server basics
//	DATABASE_URL - "memory" (default) or a postgres:// connection string
//	STORAGE_URL - "memory://" (default), "file:///path/to/data", or
//	              "s3://bucket?region=us-east-1&endpoint=...&path_style=true"
//	FETCH_TIMEOUT_SECONDS - remote media fetch timeout
//	MEDIA_UPLOAD_TYPES - comma-separated content-type allow-list
//	MAPBOX_LAYER_KEYS - comma-separated canonical key order
//	JWT_SECRET - enables bearer-token verification on the API when set
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}

		if err := applyDatabaseEnv(prefix, c); err != nil {
			return err
		}
		if err := applyStorageEnv(prefix, c); err != nil {
			return err
		}

		if v, ok := lookupEnv(prefix, "FETCH_TIMEOUT_SECONDS"); ok && v != "" {
			secs, err := strconv.Atoi(v)
			if err != nil || secs <= 0 {
				return fmt.Errorf("invalid FETCH_TIMEOUT_SECONDS: %q", v)
			}
			c.FetchTimeout = time.Duration(secs) * time.Second
		}
		if v, ok := lookupEnv(prefix, "MEDIA_UPLOAD_TYPES"); ok && v != "" {
			c.AllowedMediaTypes = splitCSV(v)
		}
		if v, ok := lookupEnv(prefix, "MAPBOX_LAYER_KEYS"); ok && v != "" {
			c.MapboxLayerKeys = splitCSV(v)
		}
		if v, ok := lookupEnv(prefix, "JWT_SECRET"); ok {
			c.JWTSecret = v
		}

		return nil
	}
}

func applyDatabaseEnv(prefix string, c *ServerConfig) error {
	dbURL, hasURL := lookupEnv(prefix, "DATABASE_URL")

	if !hasURL || dbURL == "" || dbURL == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	if strings.HasPrefix(dbURL, "postgresql://") || strings.HasPrefix(dbURL, "postgres://") {
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
		return nil
	}

	return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
}

func applyStorageEnv(prefix string, c *ServerConfig) error {
	storageURL, hasURL := lookupEnv(prefix, "STORAGE_URL")

	if !hasURL || storageURL == "" || storageURL == "memory" || storageURL == "memory://" {
		c.Storage = StorageConfig{Type: "memory"}
		return nil
	}

	switch {
	case strings.HasPrefix(storageURL, "file://"):
		path := strings.TrimPrefix(storageURL, "file://")
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.Storage = StorageConfig{
			Type:   "fs",
			Config: map[string]interface{}{"base_dir": path},
		}
		return nil

	case strings.HasPrefix(storageURL, "s3://"):
		return applyS3Storage(storageURL, prefix, c)
	}

	return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", storageURL)
}

// applyS3Storage configures S3 storage from a URL of the form
// s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true
func applyS3Storage(rawURL, prefix string, c *ServerConfig) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid s3 STORAGE_URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("s3 STORAGE_URL must include a bucket name")
	}

	q := u.Query()
	cfg := map[string]interface{}{
		"bucket": u.Host,
	}
	if v := q.Get("region"); v != "" {
		cfg["region"] = v
	}
	if v := q.Get("endpoint"); v != "" {
		cfg["endpoint"] = v
	}
	if v := q.Get("path_style"); v != "" {
		pathStyle, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid path_style in STORAGE_URL: %q", v)
		}
		cfg["use_path_style"] = pathStyle
	}

	// Credentials come from the conventional AWS variables, not the URL.
	if v, ok := lookupEnv(prefix, "AWS_ACCESS_KEY_ID"); ok && v != "" {
		cfg["access_key_id"] = v
	}
	if v, ok := lookupEnv(prefix, "AWS_SECRET_ACCESS_KEY"); ok && v != "" {
		cfg["secret_access_key"] = v
	}

	c.Storage = StorageConfig{Type: "s3", Config: cfg}
	return nil
}

func lookupEnv(prefix, key string) (string, bool) {
	if prefix != "" {
		return os.LookupEnv(prefix + "_" + key)
	}
	return os.LookupEnv(key)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
