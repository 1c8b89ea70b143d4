package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/bnema/voicepool/internal/logging"
)

type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate reports every invalid value at once.
func (c Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.Pool.GraceDelay < 0 {
		errs = append(errs, ValidationError{Field: "pool.grace_delay", Value: c.Pool.GraceDelay, Message: "must not be negative"})
	}
	if c.Pool.TerminatePID < 0 {
		errs = append(errs, ValidationError{Field: "pool.terminate_pid", Value: c.Pool.TerminatePID, Message: "must not be negative"})
	}
	if c.Cache.CleanupInterval <= 0 {
		errs = append(errs, ValidationError{Field: "cache.cleanup_interval", Value: c.Cache.CleanupInterval, Message: "must be positive"})
	}
	if c.Dedup.Timeout <= 0 {
		errs = append(errs, ValidationError{Field: "dedup.timeout", Value: c.Dedup.Timeout, Message: "must be positive"})
	}
	if !slices.Contains([]string{DriverTOML, DriverSQLite}, c.Store.Driver) {
		errs = append(errs, ValidationError{Field: "store.driver", Value: c.Store.Driver, Message: "must be toml or sqlite"})
	}
	if !slices.Contains([]string{SecretsAuto, SecretsPass, SecretsFile}, c.Secrets.Backend) {
		errs = append(errs, ValidationError{Field: "secrets.backend", Value: c.Secrets.Backend, Message: "must be auto, pass or file"})
	}
	if err := validateGatewayURL(c.Gateway.URL); err != "" {
		errs = append(errs, ValidationError{Field: "gateway.url", Value: c.Gateway.URL, Message: err})
	}
	if strings.TrimSpace(c.Commands.DefaultPrefix) == "" {
		errs = append(errs, ValidationError{Field: "commands.default_prefix", Value: c.Commands.DefaultPrefix, Message: "must not be empty"})
	}
	if !slices.Contains(logging.ValidLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{Field: "log.level", Value: c.Log.Level, Message: "must be one of " + strings.Join(logging.ValidLevels(), ", ")})
	}
	if !slices.Contains(logging.ValidFormats(), strings.ToLower(c.Log.Format)) {
		errs = append(errs, ValidationError{Field: "log.format", Value: c.Log.Format, Message: "must be json or text"})
	}

	seen := make(map[string]struct{}, len(c.Sessions))
	for i, session := range c.Sessions {
		field := fmt.Sprintf("sessions[%d]", i)
		name := strings.TrimSpace(session.Name)
		if name == "" {
			errs = append(errs, ValidationError{Field: field + ".name", Value: session.Name, Message: "is required"})
			continue
		}
		if _, dup := seen[strings.ToLower(name)]; dup {
			errs = append(errs, ValidationError{Field: field + ".name", Value: session.Name, Message: "is duplicated"})
		}
		seen[strings.ToLower(name)] = struct{}{}
		if session.Token != "" && session.TokenRef != "" {
			errs = append(errs, ValidationError{Field: field, Value: name, Message: "token and token_ref are mutually exclusive"})
		}
	}

	return errs
}

func validateGatewayURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "must be a valid URL"
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "scheme must be ws or wss"
	}
	if parsed.Host == "" {
		return "host is required"
	}
	return ""
}
