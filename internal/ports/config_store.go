package ports

import (
	"context"

	"github.com/bnema/voicepool/internal/domain"
)

// ConfigStore is the durable, authoritative store of tenant configuration.
// Get returns the kind's default document when nothing was written yet.
type ConfigStore interface {
	Get(ctx context.Context, scope domain.ConfigScope, tenant domain.TenantID) (domain.ConfigDocument, error)
	Put(ctx context.Context, scope domain.ConfigScope, tenant domain.TenantID, doc domain.ConfigDocument) error
}

// Cacheable is implemented by stores whose documents may be mirrored in the
// process-wide cache.
type Cacheable interface {
	SupportsCache() bool
}
