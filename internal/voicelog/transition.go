// Package voicelog classifies voice state changes and reports them to a
// guild's configured log channel.
package voicelog

import "time"

// Member identifies who changed voice channel.
type Member struct {
	UserID    string
	Tag       string
	AvatarURL string
}

// Channel is a voice channel as seen in a voice state.
type Channel struct {
	ID   string
	Name string
}

// Transition is one of Join, Leave, Move or NoOp.
type Transition interface {
	transition()
}

type Join struct {
	Member  Member
	Channel Channel
	At      time.Time
}

type Leave struct {
	Member  Member
	Channel Channel
	At      time.Time
}

type Move struct {
	Member Member
	From   Channel
	To     Channel
	At     time.Time
}

// NoOp covers mute/deafen/stream toggles and anything else that keeps the
// member in the same channel.
type NoOp struct{}

func (Join) transition()  {}
func (Leave) transition() {}
func (Move) transition()  {}
func (NoOp) transition()  {}

// Classify derives the transition from the channel before and after the
// update. A nil channel means the member was not in voice.
func Classify(m Member, before, after *Channel, at time.Time) Transition {
	switch {
	case before == nil && after != nil:
		return Join{Member: m, Channel: *after, At: at}
	case before != nil && after == nil:
		return Leave{Member: m, Channel: *before, At: at}
	case before != nil && after != nil && before.ID != after.ID:
		return Move{Member: m, From: *before, To: *after, At: at}
	default:
		return NoOp{}
	}
}
