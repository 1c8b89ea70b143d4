package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
)

var ErrReadOnly = errors.New("environment secret store is read-only")

type lookupFunc func(key string) (string, bool)

// Store reads secrets from process environment variables.
type Store struct {
	lookup lookupFunc
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{lookup: os.LookupEnv}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := strings.TrimSpace(key)
	if name == "" {
		return "", errors.New("secret key is empty")
	}

	value, ok := s.lookup(name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("env secret %q: %w", name, domain.ErrSecretNotFound)
	}

	return value, nil
}

func (s *Store) Put(context.Context, string, string) error {
	return ErrReadOnly
}

func (s *Store) Delete(context.Context, string) error {
	return ErrReadOnly
}
