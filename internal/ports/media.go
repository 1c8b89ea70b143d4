package ports

import (
	"context"

	"github.com/bnema/voicepool/internal/domain"
)

// MediaSubsystem opens and holds the tenant's media connection on the
// session chosen by the router.
type MediaSubsystem interface {
	Dispatch(ctx context.Context, session Session, cmd domain.Command) error
}
