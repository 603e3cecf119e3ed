// Package cities keeps the operator-managed list of tracked city names.
// The list lives in a JSON file so it survives restarts and can be edited
// out-of-band.
package cities

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"haulbot/pkg/logx"
)

type Manager struct {
	path string
	log  logx.Logger

	mu sync.Mutex
}

func NewManager(path string, log logx.Logger) (*Manager, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	m := &Manager{path: path, log: log}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := m.save(nil); err != nil {
			return nil, err
		}
		log.Info("created cities file", logx.String("path", path))
	}
	return m, nil
}

func (m *Manager) load() []string {
	b, err := os.ReadFile(m.path)
	if err != nil {
		m.log.Error("cities load failed", logx.Err(err))
		return nil
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		m.log.Error("cities decode failed", logx.Err(err))
		return nil
	}
	return out
}

func (m *Manager) save(list []string) error {
	if list == nil {
		list = []string{}
	}
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, b, 0o644)
}

func normalize(city string) string {
	return strings.ToUpper(strings.TrimSpace(city))
}

// Add appends city (upper-cased) and reports whether it was new.
func (m *Manager) Add(city string) (bool, error) {
	city = normalize(city)
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.load()
	if slices.Contains(list, city) {
		return false, nil
	}
	list = append(list, city)
	if err := m.save(list); err != nil {
		return false, err
	}
	m.log.Info("city added", logx.String("city", city))
	return true, nil
}

// Remove deletes city and reports whether it was present.
func (m *Manager) Remove(city string) (bool, error) {
	city = normalize(city)
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.load()
	i := slices.Index(list, city)
	if i < 0 {
		return false, nil
	}
	list = slices.Delete(list, i, i+1)
	if err := m.save(list); err != nil {
		return false, err
	}
	m.log.Info("city removed", logx.String("city", city))
	return true, nil
}

func (m *Manager) All() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

func (m *Manager) Has(city string) bool {
	city = normalize(city)
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.load(), city)
}

func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.save(nil); err != nil {
		return err
	}
	m.log.Info("cities cleared")
	return nil
}
