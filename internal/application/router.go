package application

import (
	"sort"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
)

// Router selects the session that owns a tenant's media connection for a
// work request. It only reads resident state and never blocks.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Resolve evaluates the ownership rules in order and caches the winner on
// the request. The registry is re-read on every call.
func (r *Router) Resolve(req *WorkRequest) (ports.Session, error) {
	if session, ok := req.Resolved(); ok {
		return session, nil
	}

	if !req.Kind.CarriesRoutingContext() {
		return nil, domain.ErrNoRoutingContext
	}

	sessions := r.registry.Snapshot()

	if session := occupiedBy(sessions, req.Tenant, req.Participant); session != nil {
		req.resolve(session)
		return session, nil
	}

	// A route requiring an existing session never recruits a new owner.
	if req.Route.RequireExistingSession {
		return nil, noAvailableSession(sessions, req.Tenant)
	}

	origin := registered(sessions, req.Origin)

	if origin != nil && isFree(origin, req.Tenant) {
		req.resolve(origin)
		return origin, nil
	}

	if !req.Route.OnlyAmongConnected {
		for _, session := range sessions {
			if origin != nil && session.ID() == origin.ID() {
				continue
			}
			if isFree(session, req.Tenant) {
				req.resolve(session)
				return session, nil
			}
		}
	}

	return nil, noAvailableSession(sessions, req.Tenant)
}

func noAvailableSession(sessions []ports.Session, tenant domain.TenantID) error {
	return &domain.NoAvailableSessionError{
		Tenant:    tenant,
		Invitable: Invitable(sessions, tenant),
	}
}

// occupiedBy returns the first session already connected to the channel the
// participant is in.
func occupiedBy(sessions []ports.Session, tenant domain.TenantID, participant domain.ParticipantID) ports.Session {
	for _, session := range sessions {
		if !session.Ready() {
			continue
		}
		occupancy, ok := session.Occupancy(tenant)
		if ok && occupancy.Has(participant) {
			return session
		}
	}
	return nil
}

func registered(sessions []ports.Session, origin ports.Session) ports.Session {
	if origin == nil {
		return nil
	}
	for _, session := range sessions {
		if session.ID() == origin.ID() {
			return session
		}
	}
	return nil
}

// isFree reports whether session is a ready member of tenant holding no
// media connection there.
func isFree(session ports.Session, tenant domain.TenantID) bool {
	if !session.Ready() || !session.IsMember(tenant) {
		return false
	}
	occupancy, ok := session.Occupancy(tenant)
	return !ok || !occupancy.Connected
}

// Invitable lists ready public sessions that are not members of tenant,
// least-loaded first.
func Invitable(sessions []ports.Session, tenant domain.TenantID) []domain.SessionRef {
	refs := make([]domain.SessionRef, 0, len(sessions))
	for _, session := range sessions {
		if !session.Ready() || !session.Public() || session.IsMember(tenant) {
			continue
		}
		refs = append(refs, domain.SessionRef{
			ID:          session.ID(),
			Name:        session.Name(),
			Public:      true,
			TenantCount: len(session.Tenants()),
		})
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].TenantCount < refs[j].TenantCount
	})

	return refs
}
