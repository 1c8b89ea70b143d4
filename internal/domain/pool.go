package domain

type PoolState string

const (
	PoolStateRunning     PoolState = "running"
	PoolStateRateLimited PoolState = "rate_limited"
	PoolStateTerminating PoolState = "terminating"
)

// SessionRef is a lightweight description of a pool session, used when
// presenting alternatives to a caller.
type SessionRef struct {
	ID          SessionID
	Name        string
	Public      bool
	TenantCount int
}

type SessionStatus struct {
	ID        SessionID  `json:"id"`
	Name      string     `json:"name"`
	Ready     bool       `json:"ready"`
	Public    bool       `json:"public"`
	Tenants   int        `json:"tenants"`
	Connected []TenantID `json:"connected"`
}

type PoolStatus struct {
	State         PoolState       `json:"state"`
	Sessions      []SessionStatus `json:"sessions"`
	CachedConfigs int             `json:"cached_configs"`
	DedupTokens   int             `json:"dedup_tokens"`
}

func (s PoolStatus) ReadyCount() int {
	count := 0
	for _, session := range s.Sessions {
		if session.Ready {
			count++
		}
	}
	return count
}
