package domain

import "strings"

type EventKind string

const (
	EventKindCommand   EventKind = "command"
	EventKindText      EventKind = "text"
	EventKindComponent EventKind = "component"
	EventKindModal     EventKind = "modal"
)

// CarriesRoutingContext is false for callbacks bound to a message another
// session rendered; such events cannot be re-routed across the pool.
func (k EventKind) CarriesRoutingContext() bool {
	switch k {
	case EventKindComponent, EventKindModal:
		return false
	default:
		return true
	}
}

// RouteOptions are the per call-site flags that narrow ownership resolution.
type RouteOptions struct {
	OnlyAmongConnected     bool
	RequireExistingSession bool
}

type TextEvent struct {
	ID          EventID
	Tenant      TenantID
	Channel     ChannelID
	Author      ParticipantID
	AuthorIsBot bool
	Content     string
}

type InteractionEvent struct {
	ID      EventID
	Tenant  TenantID
	Channel ChannelID
	Author  ParticipantID
	Kind    EventKind
	Name    string
	Options map[string]string
	Route   RouteOptions
}

// DedupKey identifies one inbound event across every session observing it.
type DedupKey struct {
	Tenant  TenantID
	Channel ChannelID
	Event   EventID
}

func (k DedupKey) String() string {
	return strings.Join([]string{k.Tenant.String(), k.Channel.String(), k.Event.String()}, "-")
}

// Command is the unit of work handed to the media subsystem once a session
// has been selected.
type Command struct {
	RequestID   string
	Name        string
	Args        []string
	Tenant      TenantID
	Channel     ChannelID
	Participant ParticipantID
}
