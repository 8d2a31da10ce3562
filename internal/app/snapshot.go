package app

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"realvora-go/internal/config"
	"realvora-go/internal/encryption"
	"realvora-go/internal/ledger"
	"realvora-go/internal/vault"
)

// ErrNoVault is returned by snapshot commands when no vault is configured.
var ErrNoVault = errors.New("no vault configured")

// sqliteMagic starts every plaintext SQLite database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// PassphraseFunc supplies the passphrase for an encrypted snapshot. It is
// only called when one is needed.
type PassphraseFunc func() (string, error)

// SnapshotInfo describes a snapshot moved to or from the vault.
type SnapshotInfo struct {
	ChainID   string `json:"chain_id"`
	Version   int64  `json:"version"`
	Size      int64  `json:"size"`
	Encrypted bool   `json:"encrypted"`
	Path      string `json:"path,omitempty"`
}

// PushSnapshot copies the ledger database, optionally encrypts it, and
// uploads it with the last journal id as its version.
func (a *App) PushSnapshot(encrypt bool) (*SnapshotInfo, error) {
	if a.vault == nil {
		return nil, ErrNoVault
	}
	if encrypt && !a.encryptor.IsConfigured() {
		return nil, fmt.Errorf("snapshot keys not set up: run ledger init with a passphrase")
	}

	version, err := a.db.LastOperationID()
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "realvora-snapshot-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, a.cfg.ChainID+".db")
	if err := a.db.BackupTo(path); err != nil {
		return nil, err
	}
	if encrypt {
		sealed := path + ".age"
		if err := a.encryptFile(path, sealed); err != nil {
			return nil, err
		}
		path = sealed
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}

	if err := a.vault.PutSnapshot(a.cfg.ChainID, f, info.Size(), version); err != nil {
		return nil, fmt.Errorf("uploading snapshot: %w", err)
	}
	a.logger.Info("snapshot pushed", "chain", a.cfg.ChainID, "version", version,
		"size", info.Size(), "encrypted", encrypt)

	return &SnapshotInfo{ChainID: a.cfg.ChainID, Version: version, Size: info.Size(), Encrypted: encrypt}, nil
}

func (a *App) encryptFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating encrypted snapshot: %w", err)
	}
	if err := a.encryptor.Encrypt(in, out); err != nil {
		out.Close()
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	return out.Close()
}

// PullSnapshot downloads the latest snapshot of cfg's chain to destPath,
// which must not exist. It does not open the ledger, so it works when the
// local copy is behind the vault.
func PullSnapshot(cfg *config.Config, destPath string, passphrase PassphraseFunc) (*SnapshotInfo, error) {
	if len(cfg.Vaults) == 0 {
		return nil, ErrNoVault
	}
	v, err := vault.NewVaultFromConfig(context.Background(), cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	return pullSnapshot(v, enc, cfg.ChainID, destPath, passphrase)
}

func pullSnapshot(v ledger.Vault, enc ledger.Encryptor, chainID, destPath string, passphrase PassphraseFunc) (*SnapshotInfo, error) {
	if _, err := os.Stat(destPath); err == nil {
		return nil, fmt.Errorf("%s already exists", destPath)
	}
	version, err := v.GetSnapshotVersion(chainID)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot version: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating destination dir: %w", err)
	}
	download, err := os.CreateTemp(filepath.Dir(destPath), ".snapshot-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(download.Name())
	defer download.Close()

	if err := v.GetSnapshot(chainID, download); err != nil {
		return nil, fmt.Errorf("downloading snapshot: %w", err)
	}
	if _, err := download.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	br := bufio.NewReader(download)
	head, _ := br.Peek(len(sqliteMagic))
	encrypted := !bytes.Equal(head, sqliteMagic)

	out, err := os.OpenFile(destPath+".partial", os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer os.Remove(out.Name())

	if encrypted {
		err = decryptTo(enc, br, out, passphrase)
	} else {
		_, err = io.Copy(out, br)
	}
	if err != nil {
		out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	info, err := os.Stat(out.Name())
	if err != nil {
		return nil, err
	}
	if err := os.Rename(out.Name(), destPath); err != nil {
		return nil, fmt.Errorf("placing snapshot: %w", err)
	}

	return &SnapshotInfo{ChainID: chainID, Version: version, Size: info.Size(), Encrypted: encrypted, Path: destPath}, nil
}

func decryptTo(enc ledger.Encryptor, r io.Reader, w io.Writer, passphrase PassphraseFunc) error {
	if passphrase == nil {
		return fmt.Errorf("snapshot is encrypted and no passphrase was supplied")
	}
	pass, err := passphrase()
	if err != nil {
		return fmt.Errorf("reading passphrase: %w", err)
	}
	dc, err := enc.Unlock(pass)
	if err != nil {
		return fmt.Errorf("unlocking snapshot key: %w", err)
	}
	if err := dc.Decrypt(r, w); err != nil {
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	return nil
}
