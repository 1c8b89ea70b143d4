package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	storePathKey    = "store.path"
	storeFileMode   = 0o600
	storeDirMode    = 0o700
	storeConfigDir  = ".voicepool"
	storeConfigFile = "store.toml"
	tempFilePattern = ".store-*.toml.tmp"
)

// ConfigStore keeps tenant configuration documents in a single TOML file.
// Writes replace the file atomically; stores opened on the same path share
// one lock.
type ConfigStore struct {
	path  string
	mu    *sync.RWMutex
	clock ports.Clock
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var (
	_ ports.ConfigStore = (*ConfigStore)(nil)
	_ ports.Cacheable   = (*ConfigStore)(nil)
)

func NewConfigStore(cfg *viper.Viper, clock ports.Clock) (*ConfigStore, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.SetDefault(storePathKey, filepath.Join(homeDir, storeConfigDir, storeConfigFile))

	storePath := cfg.GetString(storePathKey)
	if storePath == "" {
		return nil, errors.New("store path is empty")
	}
	storePath, err = normalizeStorePath(storePath)
	if err != nil {
		return nil, err
	}

	return &ConfigStore{path: storePath, mu: lockForPath(storePath), clock: clock}, nil
}

func (s *ConfigStore) Path() string {
	return s.path
}

func (s *ConfigStore) SupportsCache() bool {
	return true
}

func (s *ConfigStore) Get(ctx context.Context, scope domain.ConfigScope, tenant domain.TenantID) (domain.ConfigDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return nil, err
	}

	for _, entry := range file.Documents {
		if entry.matches(scope.Collection, string(scope.Kind), tenant.String()) {
			return fromSchema(entry), nil
		}
	}

	return domain.DefaultDocument(scope.Kind), nil
}

func (s *ConfigStore) Put(ctx context.Context, scope domain.ConfigScope, tenant domain.TenantID, doc domain.ConfigDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := scope.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}

	encoded := documentSchema{
		Collection: scope.Collection,
		Kind:       string(scope.Kind),
		TenantID:   tenant.String(),
		UpdatedAt:  s.clock.Now().UTC().Format(time.RFC3339),
		Payload:    doc.Clone(),
	}

	updated := false
	for i := range file.Documents {
		if file.Documents[i].matches(encoded.Collection, encoded.Kind, encoded.TenantID) {
			file.Documents[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Documents = append(file.Documents, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.writeSchema(file)
}

func (s *ConfigStore) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read store file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode store file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (s *ConfigStore) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(s.path), storeDirMode); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp store file: %w", err)
	}

	if err := tempFile.Chmod(storeFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp store file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(s.path, storeFileMode); err != nil {
		return fmt.Errorf("chmod store file: %w", err)
	}

	return nil
}

func fromSchema(entry documentSchema) domain.ConfigDocument {
	doc := make(domain.ConfigDocument, len(entry.Payload))
	for key, value := range entry.Payload {
		doc[key] = value
	}
	return doc.Clone()
}

func normalizeStorePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve store path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
