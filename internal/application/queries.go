package application

import "github.com/bnema/voicepool/internal/domain"

// StatusQuery assembles the pool status shown by the API and the CLI.
type StatusQuery struct {
	supervisor *Supervisor
	cache      *ConfigCache
	dedup      *DedupSet
}

func NewStatusQuery(supervisor *Supervisor, cache *ConfigCache, dedup *DedupSet) *StatusQuery {
	return &StatusQuery{supervisor: supervisor, cache: cache, dedup: dedup}
}

func (q *StatusQuery) Status() domain.PoolStatus {
	status := q.supervisor.Status()
	if q.cache != nil {
		status.CachedConfigs = q.cache.Len()
	}
	if q.dedup != nil {
		status.DedupTokens = q.dedup.Len()
	}
	return status
}
