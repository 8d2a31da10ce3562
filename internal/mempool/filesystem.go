package mempool

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"realvora-go/internal/ledger"
)

// NewFileSystemMempool creates a mempool persisted under dir so queued
// calls survive restarts of the CLI.
//
// Directory structure:
//
//	<mempool_dir>/
//	  queue.json    (ordered list of submitted calls)
func NewFileSystemMempool(dir string, maxCalls int) (ledger.Mempool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating mempool directory: %w", err)
	}
	return &mempool{store: &fileStore{path: filepath.Join(dir, "queue.json")}, maxCalls: maxCalls}, nil
}

// fileStore rewrites queue.json on every change.
type fileStore struct {
	path string
}

func (s *fileStore) load() ([]ledger.Call, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading queue: %w", err)
	}
	var calls []ledger.Call
	if err := json.Unmarshal(data, &calls); err != nil {
		return nil, fmt.Errorf("decoding queue %s: %w", s.path, err)
	}
	return calls, nil
}

// save writes to a temp file and renames it over the queue.
func (s *fileStore) save(calls []ledger.Call) error {
	data, err := json.MarshalIndent(calls, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding queue: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "queue-*.json")
	if err != nil {
		return fmt.Errorf("creating temp queue: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing queue: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing queue: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing queue: %w", err)
	}
	return nil
}

func (s *fileStore) Append(call ledger.Call) error {
	calls, err := s.load()
	if err != nil {
		return err
	}
	return s.save(append(calls, call))
}

func (s *fileStore) Peek() (*ledger.Call, error) {
	calls, err := s.load()
	if err != nil || len(calls) == 0 {
		return nil, err
	}
	return &calls[0], nil
}

func (s *fileStore) Pop(id string) error {
	calls, err := s.load()
	if err != nil {
		return err
	}
	for i, c := range calls {
		if c.ID == id {
			return s.save(append(calls[:i], calls[i+1:]...))
		}
	}
	return fmt.Errorf("call %s not queued", id)
}

func (s *fileStore) Len() (int, error) {
	calls, err := s.load()
	return len(calls), err
}

func (s *fileStore) List() ([]ledger.Call, error) {
	calls, err := s.load()
	if calls == nil {
		calls = []ledger.Call{}
	}
	return calls, err
}
