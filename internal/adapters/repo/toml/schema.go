package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version   int              `toml:"version"`
	Documents []documentSchema `toml:"documents"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported store schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type documentSchema struct {
	Collection string         `toml:"collection"`
	Kind       string         `toml:"kind"`
	TenantID   string         `toml:"tenant_id"`
	UpdatedAt  string         `toml:"updated_at,omitempty"`
	Payload    map[string]any `toml:"payload"`
}

func (d documentSchema) matches(collection, kind, tenant string) bool {
	return d.Collection == collection && d.Kind == kind && d.TenantID == tenant
}
