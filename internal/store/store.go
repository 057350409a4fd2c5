package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const provisionsFile = "provisions.json"

// Store persists provisioning history as JSON under a root directory.
type Store struct {
	root string
	mu   sync.Mutex
}

// New creates a Store rooted at the given directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the directory records are written under.
func (s *Store) Root() string {
	return s.root
}

// AddProvision appends a provisioning record.
func (s *Store) AddProvision(r ProvisionRecord) error {
	return s.appendRecord(provisionsFile, r)
}

// Provisions returns all provisioning records, oldest first.
func (s *Store) Provisions() ([]ProvisionRecord, error) {
	var records []ProvisionRecord
	err := s.loadRecords(provisionsFile, &records)
	return records, err
}

func (s *Store) appendRecord(filename string, record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return err
	}

	path := filepath.Join(s.root, filename)

	// Read existing records
	var records []json.RawMessage
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &records)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	records = append(records, raw)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) loadRecords(filename string, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.root, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, dest)
}
