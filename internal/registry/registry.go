// Package registry tracks which clients have been ingested at least once,
// so a later run can replay them all without remembering the list.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/stocklens/stocklens/internal/model"
)

// Registry is the set of known client names.
type Registry interface {
	Register(name string) error
	List() ([]string, error)
}

type clientsDoc struct {
	Clients []string `json:"clients"`
}

// JSONFile stores the registry as a clients.json document. Names are
// normalized to their underscored form, kept sorted, and registering a
// known name is a no-op.
type JSONFile struct {
	mu   sync.Mutex
	path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func (r *JSONFile) Register(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = model.NormalizeDesignation(name)
	clients, err := r.read()
	if err != nil {
		return err
	}
	for _, c := range clients {
		if c == name {
			return nil
		}
	}
	clients = append(clients, name)
	sort.Strings(clients)
	return r.write(clients)
}

func (r *JSONFile) List() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read()
}

func (r *JSONFile) read() ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var doc clientsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Clients, nil
}

func (r *JSONFile) write(clients []string) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(clientsDoc{Clients: clients}, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), "clients-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}
