package uci

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

//go:embed engines.yaml
var defaultFiles embed.FS

// Engine is a resolved registry entry.
type Engine struct {
	Name       string
	Executable string
	Path       string
	WorkingDir string
}

// Registry maps engine names to executables inside one engine directory.
// Defaults come from the embedded engines.yaml; an override file may add
// entries or replace executables.
type Registry struct {
	dir string

	mu      sync.RWMutex
	entries map[string]Engine // lowercased name -> engine
}

type registryFile struct {
	Engines map[string]string `yaml:"engines"`
}

// NewRegistry loads the embedded table and then applies overrideFile if set.
func NewRegistry(dir, overrideFile string) (*Registry, error) {
	r := &Registry{dir: dir, entries: make(map[string]Engine)}

	raw, err := fs.ReadFile(defaultFiles, "engines.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded engines: %w", err)
	}
	if err := r.applyYAML(raw); err != nil {
		return nil, fmt.Errorf("parse embedded engines: %w", err)
	}

	if strings.TrimSpace(overrideFile) != "" {
		b, err := os.ReadFile(overrideFile)
		if err != nil {
			return nil, fmt.Errorf("read engines file: %w", err)
		}
		if err := r.applyYAML(b); err != nil {
			return nil, fmt.Errorf("parse %s: %w", overrideFile, err)
		}
	}
	return r, nil
}

func (r *Registry) applyYAML(b []byte) error {
	var f registryFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, exe := range f.Engines {
		name = strings.TrimSpace(name)
		exe = strings.TrimSpace(exe)
		if name == "" || exe == "" {
			return fmt.Errorf("engine entry %q: name and executable required", name)
		}
		key := strings.ToLower(name)
		r.entries[key] = Engine{Name: name, Executable: exe}
	}
	return nil
}

// Resolve looks up name case-insensitively. Unknown names return an
// *UnknownEngineError that lists the valid names.
func (r *Registry) Resolve(name string) (Engine, error) {
	r.mu.RLock()
	e, ok := r.entries[strings.ToLower(strings.TrimSpace(name))]
	r.mu.RUnlock()
	if !ok {
		return Engine{}, &UnknownEngineError{Name: name, Valid: r.Names()}
	}
	e.WorkingDir = r.dir
	e.Path = e.Executable
	if !filepath.IsAbs(e.Path) {
		// exec resolves bare names through PATH, not cmd.Dir
		e.Path = filepath.Join(r.dir, e.Executable)
	}
	return e, nil
}

// Names returns the display names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.Name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *Registry) Dir() string { return r.dir }
