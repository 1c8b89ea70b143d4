package application

import "github.com/bnema/voicepool/internal/domain"

type SetConfigFieldCommand struct {
	Scope  domain.ConfigScope
	Tenant domain.TenantID
	Field  string
	Value  any
}

type UnsetConfigFieldCommand struct {
	Scope  domain.ConfigScope
	Tenant domain.TenantID
	Field  string
}
