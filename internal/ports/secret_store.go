package ports

import "context"

// SecretStore holds session tokens by key. Get returns an error wrapping
// domain.ErrSecretNotFound when the key has no usable value.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
