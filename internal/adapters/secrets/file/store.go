package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
)

const (
	vaultDirMode    = 0o700
	tokenFileMode   = 0o600
	tempFilePattern = ".token-*.tmp"
)

var (
	ErrInvalidKey     = errors.New("invalid token key")
	ErrMultilineToken = errors.New("token must be a single line")

	keySegment = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// Store keeps one session token per file under root. Keys are slash
// separated paths such as "voicepool/sessions/music/token".
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(value)
	if token == "" {
		return fmt.Errorf("token %q is empty", key)
	}
	if strings.ContainsAny(token, "\r\n") {
		return fmt.Errorf("token %q: %w", key, ErrMultilineToken)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeAtomic(path, []byte(token+"\n"))
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.pathForKey(key)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("token file %q: %w", key, domain.ErrSecretNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read token file %q: %w", key, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %q is empty: %w", key, domain.ErrSecretNotFound)
	}
	return token, nil
}

// Delete removes the token file; a missing file is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete token file %q: %w", key, err)
	}
	return nil
}

func (s *Store) pathForKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if !keySegment.MatchString(segment) {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(trimmed)), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, vaultDirMode); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tempName := tempFile.Name()
	defer func() {
		_ = os.Remove(tempName)
	}()

	if err := tempFile.Chmod(tokenFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp token file: %w", err)
	}
	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp token file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp token file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}
