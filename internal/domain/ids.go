package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type SessionID uint64
type TenantID uint64
type ChannelID uint64
type ParticipantID uint64
type EventID uint64

func (id SessionID) String() string     { return strconv.FormatUint(uint64(id), 10) }
func (id TenantID) String() string      { return strconv.FormatUint(uint64(id), 10) }
func (id ChannelID) String() string     { return strconv.FormatUint(uint64(id), 10) }
func (id ParticipantID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id EventID) String() string       { return strconv.FormatUint(uint64(id), 10) }

func ParseTenantID(raw string) (TenantID, error) {
	value, err := parseID(raw)
	if err != nil {
		return 0, fmt.Errorf("parse tenant id: %w", err)
	}
	return TenantID(value), nil
}

func ParseSessionID(raw string) (SessionID, error) {
	value, err := parseID(raw)
	if err != nil {
		return 0, fmt.Errorf("parse session id: %w", err)
	}
	return SessionID(value), nil
}

func parseID(raw string) (uint64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("id is required")
	}

	value, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	if value == 0 {
		return 0, fmt.Errorf("id must be non-zero")
	}

	return value, nil
}
