package vault

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"realvora-go/internal/ledger"
)

// FileSystemVault stores snapshots as files:
//
//	<root>/
//	  snapshots/
//	    <chainID>.db       (latest database snapshot)
//	    <chainID>.version  (last operation id it contains)
type FileSystemVault struct {
	name         string
	root         string
	snapshotsDir string
}

// NewFileSystemVault creates a vault rooted at root, creating it if needed.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	snapshotsDir := filepath.Join(root, "snapshots")
	if err := os.MkdirAll(snapshotsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshots directory: %w", err)
	}
	return &FileSystemVault{name: name, root: root, snapshotsDir: snapshotsDir}, nil
}

func (v *FileSystemVault) snapshotPath(chainID string) string {
	return filepath.Join(v.snapshotsDir, chainID+".db")
}

func (v *FileSystemVault) versionPath(chainID string) string {
	return filepath.Join(v.snapshotsDir, chainID+".version")
}

// PutSnapshot writes the snapshot and then its version, so a reader never
// sees a version newer than the data.
func (v *FileSystemVault) PutSnapshot(chainID string, r io.Reader, size int64, version int64) error {
	if err := writeAtomic(v.snapshotPath(chainID), r, size); err != nil {
		return err
	}
	data := strconv.FormatInt(version, 10)
	return writeAtomic(v.versionPath(chainID), strings.NewReader(data), int64(len(data)))
}

func (v *FileSystemVault) GetSnapshot(chainID string, w io.Writer) error {
	f, err := os.Open(v.snapshotPath(chainID))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: chain %s", ErrSnapshotNotFound, chainID)
	}
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	return nil
}

// GetSnapshotVersion returns 0 if no version file exists.
func (v *FileSystemVault) GetSnapshotVersion(chainID string) (int64, error) {
	data, err := os.ReadFile(v.versionPath(chainID))
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading version file: %w", err)
	}
	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.snapshotsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

// writeAtomic copies r to destPath through a temp file in the same
// directory and renames it into place once the size checks out.
func writeAtomic(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	success = true
	return nil
}

var _ ledger.Vault = (*FileSystemVault)(nil)
