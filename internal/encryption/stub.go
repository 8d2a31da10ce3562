package encryption

import (
	"bytes"
	"fmt"
	"io"

	"realvora-go/internal/ledger"
)

// stubMagic marks output of StubEncryptor.
var stubMagic = []byte("RVSNAP01")

// StubEncryptor frames data with a fixed marker instead of encrypting it.
// Output differs from the input and round-trips without keys, which is all
// snapshot tests need.
type StubEncryptor struct {
	passphrase string
}

var _ ledger.Encryptor = (*StubEncryptor)(nil)

func NewStubEncryptor() *StubEncryptor {
	return &StubEncryptor{}
}

// Setup remembers passphrase so Unlock can reject a different one.
func (e *StubEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	return nil
}

func (e *StubEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(stubMagic); err != nil {
		return fmt.Errorf("writing marker: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying snapshot: %w", err)
	}
	return nil
}

func (e *StubEncryptor) Unlock(passphrase string) (ledger.DecryptionContext, error) {
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return stubDecryption{}, nil
}

func (e *StubEncryptor) IsConfigured() bool {
	return true
}

type stubDecryption struct{}

func (stubDecryption) Decrypt(r io.Reader, w io.Writer) error {
	marker := make([]byte, len(stubMagic))
	if _, err := io.ReadFull(r, marker); err != nil {
		return fmt.Errorf("reading marker: %w", err)
	}
	if !bytes.Equal(marker, stubMagic) {
		return fmt.Errorf("not a stub-sealed snapshot")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying snapshot: %w", err)
	}
	return nil
}
