package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoSessions           = errors.New("no session could be constructed")
	ErrRateLimited          = errors.New("gateway rate limited")
	ErrAuthenticationFailed = errors.New("gateway authentication failed")
	ErrNoRoutingContext     = errors.New("event carries no routing context")
	ErrNoAvailableSession   = errors.New("no session available")
	ErrInvalidScope         = errors.New("invalid config scope")
	ErrSecretNotFound       = errors.New("secret not found")
	ErrNotInVoice           = errors.New("participant is not in a voice channel")
)

// NoAvailableSessionError reports a routing failure together with the
// sessions the tenant could add to gain capacity.
type NoAvailableSessionError struct {
	Tenant    TenantID
	Invitable []SessionRef
}

func (e *NoAvailableSessionError) Error() string {
	if len(e.Invitable) == 0 {
		return fmt.Sprintf("no session available for tenant %s", e.Tenant)
	}

	names := make([]string, 0, len(e.Invitable))
	for _, ref := range e.Invitable {
		names = append(names, ref.Name)
	}
	return fmt.Sprintf("no session available for tenant %s (invitable: %s)", e.Tenant, strings.Join(names, ", "))
}

func (e *NoAvailableSessionError) Unwrap() error {
	return ErrNoAvailableSession
}
