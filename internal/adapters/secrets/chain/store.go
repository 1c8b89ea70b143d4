package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/voicepool/internal/adapters/secrets/file"
	passstore "github.com/bnema/voicepool/internal/adapters/secrets/pass"
	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
)

const (
	BackendAuto = "auto"
	BackendPass = "pass"
	BackendFile = "file"
)

// Vault layers an encrypted primary store over a plaintext fallback.
// Reads consult the fallback whenever the primary has no usable answer.
// Writes only reach the fallback when the primary is not installed, so a
// failing pass setup never silently downgrades a token to a plain file.
type Vault struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
}

var _ ports.SecretStore = (*Vault)(nil)

func NewVault(primary ports.SecretStore, fallback ports.SecretStore) (*Vault, error) {
	if primary == nil {
		return nil, errors.New("primary token store is nil")
	}
	if fallback == nil {
		return nil, errors.New("fallback token store is nil")
	}
	return &Vault{primary: primary, fallback: fallback}, nil
}

// OpenBackend builds the token store named by backend. dir holds the
// plaintext token files used by the file backend and the auto fallback.
func OpenBackend(backend string, dir string) (ports.SecretStore, error) {
	switch backend {
	case BackendPass:
		return passstore.NewStore(), nil
	case BackendFile:
		return filestore.NewStore(dir), nil
	case BackendAuto, "":
		return NewVault(passstore.NewStore(), filestore.NewStore(dir))
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", backend)
	}
}

func (v *Vault) Get(ctx context.Context, key string) (string, error) {
	value, err := v.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if isContextErr(err) {
		return "", err
	}

	value, fallbackErr := v.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return value, nil
	}
	if isMissing(err) && errors.Is(fallbackErr, domain.ErrSecretNotFound) {
		return "", fmt.Errorf("token %q: %w", key, domain.ErrSecretNotFound)
	}
	return "", errors.Join(err, fallbackErr)
}

func (v *Vault) Put(ctx context.Context, key string, value string) error {
	err := v.primary.Put(ctx, key, value)
	if err == nil || !errors.Is(err, passstore.ErrUnavailable) {
		return err
	}
	return v.fallback.Put(ctx, key, value)
}

// Delete clears the key from both layers; a token written while pass was
// missing may still sit in the fallback.
func (v *Vault) Delete(ctx context.Context, key string) error {
	primaryErr := v.primary.Delete(ctx, key)
	if isContextErr(primaryErr) {
		return primaryErr
	}
	if errors.Is(primaryErr, passstore.ErrUnavailable) {
		primaryErr = nil
	}
	return errors.Join(primaryErr, v.fallback.Delete(ctx, key))
}

func isMissing(err error) bool {
	return errors.Is(err, passstore.ErrUnavailable) || errors.Is(err, domain.ErrSecretNotFound)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
