package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceStatesOccupancyOnlyCountsSelfChannel(t *testing.T) {
	states := NewVoiceStates()
	states.Set(10, 100)
	states.Set(11, 200)
	states.Set(12, 100)

	assert.False(t, states.Occupancy().Connected)

	states.SetSelf(100)
	occupancy := states.Occupancy()
	require.True(t, occupancy.Connected)
	assert.Equal(t, ChannelID(100), occupancy.Channel)
	assert.True(t, occupancy.Has(10))
	assert.True(t, occupancy.Has(12))
	assert.False(t, occupancy.Has(11))

	states.Set(12, 0)
	assert.False(t, states.Occupancy().Has(12))

	channel, ok := states.ChannelOf(11)
	require.True(t, ok)
	assert.Equal(t, ChannelID(200), channel)
	_, ok = states.ChannelOf(12)
	assert.False(t, ok)
}

func TestOccupancyHasIsFalseWhenDisconnected(t *testing.T) {
	occupancy := Occupancy{Participants: map[ParticipantID]struct{}{1: {}}}
	assert.False(t, occupancy.Has(1))
}

func TestConfigScopeValidate(t *testing.T) {
	tests := []struct {
		name    string
		scope   ConfigScope
		wantErr bool
	}{
		{name: "global guilds", scope: GlobalScope(ConfigKindGuilds)},
		{name: "session users", scope: SessionScope(42, ConfigKindUsers)},
		{name: "missing collection", scope: ConfigScope{Kind: ConfigKindGuilds}, wantErr: true},
		{name: "unknown kind", scope: ConfigScope{Collection: "global", Kind: "players"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scope.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidScope)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfigDocumentCloneIsDeep(t *testing.T) {
	doc := ConfigDocument{
		"prefix":  "!",
		"djroles": []any{"1", "2"},
		"player":  map[string]any{"channel": "9"},
	}

	clone := doc.Clone()
	clone["djroles"].([]any)[0] = "changed"
	clone["player"].(map[string]any)["channel"] = "changed"

	assert.Equal(t, "1", doc["djroles"].([]any)[0])
	assert.Equal(t, "9", doc["player"].(map[string]any)["channel"])
	assert.Equal(t, "!", clone.String("prefix"))
}

func TestNoAvailableSessionErrorUnwrapsToSentinel(t *testing.T) {
	err := error(&NoAvailableSessionError{
		Tenant:    7,
		Invitable: []SessionRef{{ID: 2, Name: "Bot B"}},
	})

	assert.True(t, errors.Is(err, ErrNoAvailableSession))
	assert.Contains(t, err.Error(), "Bot B")
}

func TestDedupKeyString(t *testing.T) {
	assert.Equal(t, "1-2-3", DedupKey{Tenant: 1, Channel: 2, Event: 3}.String())
}

func TestParseTenantIDRejectsZeroAndGarbage(t *testing.T) {
	id, err := ParseTenantID(" 123 ")
	require.NoError(t, err)
	assert.Equal(t, TenantID(123), id)

	_, err = ParseTenantID("0")
	require.Error(t, err)

	_, err = ParseTenantID("abc")
	require.Error(t, err)
}

func TestEventKindRoutingContext(t *testing.T) {
	assert.True(t, EventKindCommand.CarriesRoutingContext())
	assert.True(t, EventKindText.CarriesRoutingContext())
	assert.False(t, EventKindComponent.CarriesRoutingContext())
	assert.False(t, EventKindModal.CarriesRoutingContext())
}
