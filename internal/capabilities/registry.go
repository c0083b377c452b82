package capabilities

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry is an immutable snapshot of the model catalog. The Catalog swaps
// whole registries on refresh, so lookups need no locking.
type Registry struct {
	providers map[string]*ProviderCapabilities
}

// NewRegistry loads the catalog compiled into the binary.
func NewRegistry() (*Registry, error) {
	return LoadFS(configFiles, "config")
}

// LoadFS reads one provider per *.yaml file in dir.
func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	r := newRegistry()
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var caps ProviderCapabilities
		if err := yaml.Unmarshal(data, &caps); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		if err := r.put(&caps); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}
	return r, nil
}

// Parse reads a multi-document YAML stream with one provider per document,
// the format served at CATALOG_URL.
func Parse(data []byte) (*Registry, error) {
	r := newRegistry()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	for n := 1; ; n++ {
		var caps ProviderCapabilities
		err := dec.Decode(&caps)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog document %d: %w", n, err)
		}
		if err := r.put(&caps); err != nil {
			return nil, fmt.Errorf("catalog document %d: %w", n, err)
		}
	}

	if len(r.providers) == 0 {
		return nil, errors.New("catalog has no providers")
	}
	return r, nil
}

func newRegistry() *Registry {
	return &Registry{providers: make(map[string]*ProviderCapabilities)}
}

func (r *Registry) put(caps *ProviderCapabilities) error {
	if caps.Provider == "" {
		return errors.New("provider name missing")
	}
	r.providers[caps.Provider] = caps
	return nil
}

// GetModelCapabilities looks up one model.
func (r *Registry) GetModelCapabilities(provider, model string) (*ModelCapabilities, error) {
	models, err := r.ListProviderModels(provider)
	if err != nil {
		return nil, err
	}
	for i := range models {
		if models[i].ID == model {
			return &models[i], nil
		}
	}
	return nil, fmt.Errorf("unknown model %s for provider %s", model, provider)
}

// ListProviderModels returns the models of provider in catalog order.
func (r *Registry) ListProviderModels(provider string) ([]ModelCapabilities, error) {
	caps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	return caps.Models, nil
}

// GetAllProviders returns provider names sorted.
func (r *Registry) GetAllProviders() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
