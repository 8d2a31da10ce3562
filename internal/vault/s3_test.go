package vault

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"realvora-go/internal/config"
)

// fakeS3 answers path-style HEAD and GET requests for one stored object.
func fakeS3(t *testing.T) *httptest.Server {
	t.Helper()
	const object = "/snapshots-bucket/realvora/snapshots/devnet.db"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimSuffix(r.URL.Path, "/")
		switch {
		case r.Method == http.MethodHead && p == "/snapshots-bucket":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodHead && p == object:
			w.Header().Set("x-amz-meta-version", "42")
			w.Header().Set("Content-Length", "15")
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && p == object:
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write([]byte("SQLite format 3"))
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		default:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestS3Vault(t *testing.T, endpoint string) *S3Vault {
	t.Helper()
	v, err := NewS3Vault(context.Background(), config.VaultConfig{
		Type:              "s3",
		Name:              "offsite",
		S3Bucket:          "snapshots-bucket",
		S3Prefix:          "realvora",
		S3Region:          "us-east-1",
		S3Endpoint:        endpoint,
		S3AccessKeyID:     "test-key",
		S3SecretAccessKey: "test-secret",
	})
	if err != nil {
		t.Fatalf("NewS3Vault() error = %v", err)
	}
	return v
}

func TestNewS3Vault_RequiresBucket(t *testing.T) {
	_, err := NewS3Vault(context.Background(), config.VaultConfig{Type: "s3", S3Region: "us-east-1"})
	if err == nil {
		t.Fatal("NewS3Vault() expected error without bucket")
	}
}

func TestS3Vault_Key(t *testing.T) {
	v := newTestS3Vault(t, "http://127.0.0.1:1")
	if got := v.key("devnet"); got != "realvora/snapshots/devnet.db" {
		t.Errorf("key() = %q", got)
	}
	v.prefix = ""
	if got := v.key("devnet"); got != "snapshots/devnet.db" {
		t.Errorf("key() without prefix = %q", got)
	}
}

func TestS3Vault_Reads(t *testing.T) {
	srv := fakeS3(t)
	v := newTestS3Vault(t, srv.URL)

	if err := v.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}

	version, err := v.GetSnapshotVersion("devnet")
	if err != nil {
		t.Fatalf("GetSnapshotVersion() error = %v", err)
	}
	if version != 42 {
		t.Errorf("GetSnapshotVersion() = %d, want 42", version)
	}

	missing, err := v.GetSnapshotVersion("mainnet")
	if err != nil {
		t.Fatalf("GetSnapshotVersion(mainnet) error = %v", err)
	}
	if missing != 0 {
		t.Errorf("GetSnapshotVersion(mainnet) = %d, want 0", missing)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("devnet", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != "SQLite format 3" {
		t.Errorf("GetSnapshot() = %q", buf.String())
	}

	err = v.GetSnapshot("mainnet", &bytes.Buffer{})
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("GetSnapshot(mainnet) error = %v, want ErrSnapshotNotFound", err)
	}
}
