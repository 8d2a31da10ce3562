package testutil

import (
	"realvora-go/internal/encryption"
	"realvora-go/internal/ledger"
	"realvora-go/internal/mempool"
	"realvora-go/internal/vault"
)

// NewTestVault creates an in-memory snapshot vault.
func NewTestVault() *vault.MemoryVault {
	return vault.NewMemoryVault("test-vault")
}

// NewTestEncryptor returns an encryptor that frames snapshots without keys.
func NewTestEncryptor() *encryption.StubEncryptor {
	return encryption.NewStubEncryptor()
}

// NewTestMempool returns an in-memory mempool holding up to 100 calls.
func NewTestMempool() ledger.Mempool {
	return mempool.NewMemoryMempool(100)
}
