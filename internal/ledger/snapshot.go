package ledger

import "io"

// Vault stores ledger database snapshots off-host.
// All operations stream so large databases are never held in memory.
type Vault interface {
	// PutSnapshot stores a snapshot for a chain. size is the number of
	// bytes that will be read from r; version is the last journaled
	// operation id it contains.
	PutSnapshot(chainID string, r io.Reader, size int64, version int64) error

	// GetSnapshot writes the latest snapshot of a chain to w.
	GetSnapshot(chainID string, w io.Writer) error

	// GetSnapshotVersion returns the version of the stored snapshot, or 0
	// when none exists.
	GetSnapshotVersion(chainID string) (int64, error)

	// ValidateSetup verifies that the vault is reachable and configured.
	ValidateSetup() error
}

// Encryptor protects snapshots at rest. Encryption needs only the public
// key; decryption needs a passphrase to unlock the private key.
type Encryptor interface {
	// Setup generates a key pair and protects the private key with passphrase.
	Setup(passphrase string) error

	Encrypt(r io.Reader, w io.Writer) error

	// Unlock returns a DecryptionContext, or an error for a wrong passphrase.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory only.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
