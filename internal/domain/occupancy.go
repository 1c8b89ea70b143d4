package domain

// Occupancy is a session's view of one tenant's real-time channels: the
// channel the session itself sits in (if any) and who else is there.
type Occupancy struct {
	Channel      ChannelID
	Connected    bool
	Participants map[ParticipantID]struct{}
}

func (o Occupancy) Has(participant ParticipantID) bool {
	if !o.Connected {
		return false
	}
	_, ok := o.Participants[participant]
	return ok
}

// VoiceStates records the channel every known participant of a tenant is in,
// plus the channel held by the observing session. Not safe for concurrent use.
type VoiceStates struct {
	self    ChannelID
	members map[ParticipantID]ChannelID
}

func NewVoiceStates() *VoiceStates {
	return &VoiceStates{members: map[ParticipantID]ChannelID{}}
}

// Set moves participant into channel; a zero channel means they left.
func (v *VoiceStates) Set(participant ParticipantID, channel ChannelID) {
	if channel == 0 {
		delete(v.members, participant)
		return
	}
	v.members[participant] = channel
}

func (v *VoiceStates) SetSelf(channel ChannelID) {
	v.self = channel
}

func (v *VoiceStates) Self() ChannelID {
	return v.self
}

func (v *VoiceStates) Occupancy() Occupancy {
	if v.self == 0 {
		return Occupancy{}
	}

	participants := make(map[ParticipantID]struct{})
	for participant, channel := range v.members {
		if channel == v.self {
			participants[participant] = struct{}{}
		}
	}

	return Occupancy{Channel: v.self, Connected: true, Participants: participants}
}

func (v *VoiceStates) ChannelOf(participant ParticipantID) (ChannelID, bool) {
	channel, ok := v.members[participant]
	return channel, ok
}
