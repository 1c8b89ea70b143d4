package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	envstore "github.com/bnema/voicepool/internal/adapters/secrets/env"
	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
)

const (
	envScheme  = "env://"
	passScheme = "pass://"
)

// Resolver turns a session token_ref into the token it points at.
// "env://NAME" reads an environment variable; anything else, with or
// without a "pass://" scheme, is looked up in the vault store.
type Resolver struct {
	env   ports.SecretStore
	vault ports.SecretStore
}

func NewResolver(env ports.SecretStore, vault ports.SecretStore) (*Resolver, error) {
	if env == nil {
		return nil, errors.New("env secret store is nil")
	}
	if vault == nil {
		return nil, errors.New("vault secret store is nil")
	}
	return &Resolver{env: env, vault: vault}, nil
}

// NewDefaultResolver reads env refs from the process environment and
// everything else from the configured secrets backend.
func NewDefaultResolver(backend string, dir string) (*Resolver, error) {
	vault, err := OpenBackend(backend, dir)
	if err != nil {
		return nil, err
	}
	return NewResolver(envstore.NewStore(), vault)
}

// SessionTokenKey is the vault key "vp token set" stores a session's
// token under.
func SessionTokenKey(session string) string {
	return "voicepool/sessions/" + strings.ToLower(strings.TrimSpace(session)) + "/token"
}

// SessionTokenRef is the token_ref pointing at SessionTokenKey.
func SessionTokenRef(session string) string {
	return passScheme + SessionTokenKey(session)
}

func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)

	var (
		value string
		err   error
	)
	switch {
	case trimmed == "":
		return "", errors.New("token ref is empty")
	case strings.HasPrefix(trimmed, envScheme):
		value, err = r.env.Get(ctx, strings.TrimPrefix(trimmed, envScheme))
	default:
		value, err = r.vault.Get(ctx, strings.TrimPrefix(trimmed, passScheme))
	}
	if err != nil {
		return "", fmt.Errorf("resolve token ref %q: %w", trimmed, err)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("resolve token ref %q: %w", trimmed, domain.ErrSecretNotFound)
	}
	return value, nil
}
