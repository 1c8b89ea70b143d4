package domain

import (
	"fmt"
	"strings"
)

type ConfigKind string

const (
	ConfigKindGuilds ConfigKind = "guilds"
	ConfigKindUsers  ConfigKind = "users"

	// GlobalCollection holds documents shared by every session of the pool.
	GlobalCollection = "global"

	PrefixField = "prefix"
)

// ConfigScope partitions persisted documents: a collection (one per session,
// or the global one) crossed with a document kind.
type ConfigScope struct {
	Collection string
	Kind       ConfigKind
}

func SessionScope(id SessionID, kind ConfigKind) ConfigScope {
	return ConfigScope{Collection: id.String(), Kind: kind}
}

func GlobalScope(kind ConfigKind) ConfigScope {
	return ConfigScope{Collection: GlobalCollection, Kind: kind}
}

func (s ConfigScope) Validate() error {
	if strings.TrimSpace(s.Collection) == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidScope)
	}
	switch s.Kind {
	case ConfigKindGuilds, ConfigKindUsers:
		return nil
	default:
		return fmt.Errorf("%w: unsupported kind %q", ErrInvalidScope, s.Kind)
	}
}

func (s ConfigScope) String() string {
	return s.Collection + "/" + string(s.Kind)
}

type ConfigDocument map[string]any

// DefaultDocument is returned for tenants that have never been written.
func DefaultDocument(kind ConfigKind) ConfigDocument {
	switch kind {
	case ConfigKindGuilds:
		return ConfigDocument{PrefixField: ""}
	default:
		return ConfigDocument{}
	}
}

func (d ConfigDocument) String(key string) string {
	value, ok := d[key].(string)
	if !ok {
		return ""
	}
	return value
}

// Clone returns a deep copy; nested maps and slices are not shared.
func (d ConfigDocument) Clone() ConfigDocument {
	if d == nil {
		return nil
	}

	out := make(ConfigDocument, len(d))
	for key, value := range d {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, nested := range typed {
			out[key] = cloneValue(nested)
		}
		return out
	case ConfigDocument:
		return typed.Clone()
	case []any:
		out := make([]any, len(typed))
		for i, nested := range typed {
			out[i] = cloneValue(nested)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return value
	}
}
