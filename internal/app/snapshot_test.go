package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"realvora-go/internal/database"
	"realvora-go/internal/testutil"
)

func TestPushPullSnapshot(t *testing.T) {
	for _, encrypt := range []bool{false, true} {
		name := "plain"
		if encrypt {
			name = "encrypted"
		}
		t.Run(name, func(t *testing.T) {
			v := testutil.NewTestVault()
			a := testApp(t, v)

			if _, err := a.Run(testutil.Admin, "deposit", DepositArgs{Address: testutil.Alice, Amount: 42}); err != nil {
				t.Fatalf("Run(deposit) error = %v", err)
			}

			pushed, err := a.PushSnapshot(encrypt)
			if err != nil {
				t.Fatalf("PushSnapshot() error = %v", err)
			}
			if pushed.Version != 1 || pushed.Encrypted != encrypt || pushed.Size == 0 {
				t.Errorf("PushSnapshot() = %+v", pushed)
			}
			if got, _ := v.GetSnapshotVersion("devnet"); got != 1 {
				t.Errorf("vault version = %d, want 1", got)
			}

			asked := false
			pass := func() (string, error) {
				asked = true
				return "hunter2", nil
			}
			dest := filepath.Join(t.TempDir(), "restored", "devnet.db")
			pulled, err := pullSnapshot(v, testutil.NewTestEncryptor(), "devnet", dest, pass)
			if err != nil {
				t.Fatalf("pullSnapshot() error = %v", err)
			}
			if pulled.Encrypted != encrypt || asked != encrypt {
				t.Errorf("pulled.Encrypted = %v, passphrase asked = %v, want %v", pulled.Encrypted, asked, encrypt)
			}

			data, err := os.ReadFile(dest)
			if err != nil {
				t.Fatalf("reading restored db: %v", err)
			}
			if !bytes.HasPrefix(data, sqliteMagic) {
				t.Fatal("restored file is not a SQLite database")
			}

			restored, err := database.NewSQLiteDatabase(dest, nil)
			if err != nil {
				t.Fatalf("NewSQLiteDatabase() error = %v", err)
			}
			defer restored.Close()
			if id, _ := restored.LastOperationID(); id != pulled.Version {
				t.Errorf("restored LastOperationID() = %d, want %d", id, pulled.Version)
			}
		})
	}
}

func TestPullSnapshot_Errors(t *testing.T) {
	v := testutil.NewTestVault()
	a := testApp(t, v)
	if _, err := a.PushSnapshot(true); err != nil {
		t.Fatalf("PushSnapshot() error = %v", err)
	}

	t.Run("destination exists", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "devnet.db")
		os.WriteFile(dest, []byte("keep me"), 0o600)
		if _, err := pullSnapshot(v, testutil.NewTestEncryptor(), "devnet", dest, nil); err == nil {
			t.Error("pullSnapshot() expected error for existing destination")
		}
	})

	t.Run("encrypted without passphrase", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "devnet.db")
		if _, err := pullSnapshot(v, testutil.NewTestEncryptor(), "devnet", dest, nil); err == nil {
			t.Error("pullSnapshot() expected error without passphrase")
		}
		if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("destination left behind: %v", err)
		}
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		enc := testutil.NewTestEncryptor()
		enc.Setup("right")
		dest := filepath.Join(t.TempDir(), "devnet.db")
		_, err := pullSnapshot(v, enc, "devnet", dest, func() (string, error) { return "wrong", nil })
		if err == nil {
			t.Error("pullSnapshot() expected error for wrong passphrase")
		}
	})
}

func TestPushSnapshot_NoVault(t *testing.T) {
	a := testApp(t, nil)
	if _, err := a.PushSnapshot(false); !errors.Is(err, ErrNoVault) {
		t.Errorf("PushSnapshot() error = %v, want ErrNoVault", err)
	}
}
