package providerconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"assetmatch/internal/domain"
	"assetmatch/internal/storage"
)

const defaultFileKey = "providers.json"

// FileStore keeps the serialized config list in a single JSON document.
type FileStore struct {
	files *storage.FileStore
	key   string

	mu sync.Mutex
}

// NewFileStore stores the config list under key inside files. An empty key
// selects providers.json.
func NewFileStore(files *storage.FileStore, key string) *FileStore {
	if key == "" {
		key = defaultFileKey
	}
	return &FileStore{files: files, key: key}
}

func (s *FileStore) List(ctx context.Context) ([]domain.ProviderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *FileStore) Get(ctx context.Context, name string) (domain.ProviderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	configs, err := s.load(ctx)
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	name = normalizeName(name)
	for _, cfg := range configs {
		if cfg.Name == name {
			return cfg, nil
		}
	}
	return domain.ProviderConfig{}, notFound(name)
}

func (s *FileStore) Put(ctx context.Context, cfg domain.ProviderConfig) error {
	cfg = cfg.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	configs, err := s.load(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range configs {
		if configs[i].Name == cfg.Name {
			configs[i] = cfg
			replaced = true
			break
		}
	}
	if !replaced {
		configs = append(configs, cfg)
	}
	return s.save(ctx, configs)
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	name = normalizeName(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	configs, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := configs[:0]
	for _, cfg := range configs {
		if cfg.Name != name {
			kept = append(kept, cfg)
		}
	}
	if len(kept) == len(configs) {
		return nil
	}
	return s.save(ctx, kept)
}

func (s *FileStore) load(ctx context.Context) ([]domain.ProviderConfig, error) {
	data, err := s.files.Read(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return []domain.ProviderConfig{}, nil
		}
		return nil, fmt.Errorf("providerconfig: load %s: %w", s.key, err)
	}
	var configs []domain.ProviderConfig
	if len(data) > 0 {
		if err := json.Unmarshal(data, &configs); err != nil {
			return nil, fmt.Errorf("providerconfig: decode %s: %w", s.key, err)
		}
	}
	for i := range configs {
		configs[i] = configs[i].Normalize()
	}
	return configs, nil
}

func (s *FileStore) save(ctx context.Context, configs []domain.ProviderConfig) error {
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return fmt.Errorf("providerconfig: encode: %w", err)
	}
	if _, err := s.files.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("providerconfig: save %s: %w", s.key, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
