package ports

import (
	"context"

	"github.com/bnema/voicepool/internal/domain"
)

// Session is one worker's connection to the real-time gateway. The pool only
// reads its state; occupancy is populated by the session's own connection.
type Session interface {
	ID() domain.SessionID
	Name() string
	Ready() bool
	Public() bool
	Tenants() []domain.TenantID
	IsMember(tenant domain.TenantID) bool
	Occupancy(tenant domain.TenantID) (domain.Occupancy, bool)
	Run(ctx context.Context) error
}

// PrefixedSession is implemented by sessions configured with their own
// default command prefix.
type PrefixedSession interface {
	DefaultPrefix() string
}
