package application

import (
	"crypto/rand"
	"time"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
	"github.com/oklog/ulid/v2"
)

// WorkRequest is one inbound unit of work awaiting an owning session. It is
// not safe for concurrent use; each request belongs to a single handler.
type WorkRequest struct {
	ID          string
	Origin      ports.Session
	Tenant      domain.TenantID
	Participant domain.ParticipantID
	Kind        domain.EventKind
	Route       domain.RouteOptions

	resolved ports.Session
}

func NewWorkRequest(origin ports.Session, tenant domain.TenantID, participant domain.ParticipantID, kind domain.EventKind, route domain.RouteOptions) *WorkRequest {
	return &WorkRequest{
		ID:          ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		Origin:      origin,
		Tenant:      tenant,
		Participant: participant,
		Kind:        kind,
		Route:       route,
	}
}

// Resolved returns the session cached by an earlier successful resolution.
func (r *WorkRequest) Resolved() (ports.Session, bool) {
	return r.resolved, r.resolved != nil
}

func (r *WorkRequest) resolve(session ports.Session) {
	r.resolved = session
}
