package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/voicepool/internal/domain"
)

var ErrEmptyField = errors.New("config field is empty")

// ConfigService edits single fields of tenant documents through the shared
// cache, so the running pool sees changes without waiting for invalidation.
type ConfigService struct {
	cache *ConfigCache
	mu    sync.Mutex
}

func NewConfigService(cache *ConfigCache) *ConfigService {
	return &ConfigService{cache: cache}
}

func (s *ConfigService) Get(ctx context.Context, scope domain.ConfigScope, tenant domain.TenantID) (domain.ConfigDocument, error) {
	doc, err := s.cache.Read(ctx, scope, tenant)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	return doc, nil
}

func (s *ConfigService) SetField(ctx context.Context, cmd SetConfigFieldCommand) (domain.ConfigDocument, error) {
	field := strings.TrimSpace(cmd.Field)
	if field == "" {
		return nil, ErrEmptyField
	}

	return s.update(ctx, cmd.Scope, cmd.Tenant, func(doc domain.ConfigDocument) {
		doc[field] = cmd.Value
	})
}

func (s *ConfigService) UnsetField(ctx context.Context, cmd UnsetConfigFieldCommand) (domain.ConfigDocument, error) {
	field := strings.TrimSpace(cmd.Field)
	if field == "" {
		return nil, ErrEmptyField
	}

	return s.update(ctx, cmd.Scope, cmd.Tenant, func(doc domain.ConfigDocument) {
		delete(doc, field)
	})
}

func (s *ConfigService) update(ctx context.Context, scope domain.ConfigScope, tenant domain.TenantID, mutate func(domain.ConfigDocument)) (domain.ConfigDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.cache.Read(ctx, scope, tenant)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	if doc == nil {
		doc = domain.ConfigDocument{}
	}
	mutate(doc)

	if err := s.cache.Write(ctx, scope, tenant, doc); err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}
	return doc, nil
}
