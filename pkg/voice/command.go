package voice

import (
	"strings"

	"github.com/astromech/panbot/pkg/motion"
	"github.com/astromech/panbot/pkg/sound"
)

// Command is a recognized system command.
type Command int

const (
	// CommandNone means the utterance matched nothing; the caller routes
	// it to the emotion path instead.
	CommandNone Command = iota
	CommandMute
	CommandUnmute
	CommandEnableTracking
	CommandDisableTracking
)

// String returns the command name for logs.
func (c Command) String() string {
	switch c {
	case CommandMute:
		return "mute"
	case CommandUnmute:
		return "unmute"
	case CommandEnableTracking:
		return "enable-tracking"
	case CommandDisableTracking:
		return "disable-tracking"
	default:
		return "none"
	}
}

// The vocabulary is matched case-insensitively as substrings, so "please
// stop tracking me" works. Order matters: "unmute" contains "mute", so
// unmute phrases are checked first.
var vocabulary = []struct {
	phrase string
	cmd    Command
}{
	{"unmute", CommandUnmute},
	{"speak again", CommandUnmute},
	{"mute", CommandMute},
	{"be quiet", CommandMute},
	{"stop tracking", CommandDisableTracking},
	{"disable tracking", CommandDisableTracking},
	{"stop following", CommandDisableTracking},
	{"start tracking", CommandEnableTracking},
	{"enable tracking", CommandEnableTracking},
	{"follow me", CommandEnableTracking},
}

// ParseCommand maps recognized text to a Command.
func ParseCommand(text string) Command {
	lower := strings.ToLower(text)
	for _, v := range vocabulary {
		if strings.Contains(lower, v.phrase) {
			return v.cmd
		}
	}
	return CommandNone
}

// Effects is the sound surface the dispatcher needs. Playback failures
// never propagate into command handling.
type Effects interface {
	Play(name string)
}

// Dispatcher turns recognized text into flag mutations on the shared
// motion state.
type Dispatcher struct {
	state  *motion.State
	sounds Effects
}

// NewDispatcher creates a dispatcher. sounds may be nil.
func NewDispatcher(state *motion.State, sounds Effects) *Dispatcher {
	return &Dispatcher{state: state, sounds: sounds}
}

// Dispatch processes one utterance and reports whether it was consumed.
// While muted, only the unmute command does anything; every other
// recognized or unrecognized utterance is swallowed as handled so the
// caller never routes speech onward from a muted robot. Mute itself is
// the one command that gets no acknowledgment effect.
func (d *Dispatcher) Dispatch(text string) bool {
	cmd := ParseCommand(text)

	if d.state.Muted() {
		if cmd == CommandUnmute {
			d.state.SetMuted(false)
			d.ack()
		}
		return true
	}

	switch cmd {
	case CommandMute:
		d.state.SetMuted(true)
		return true
	case CommandEnableTracking:
		d.state.SetTrackingEnabled(true)
		d.ack()
		return true
	case CommandDisableTracking:
		d.state.SetTrackingEnabled(false)
		d.ack()
		return true
	default:
		return false
	}
}

func (d *Dispatcher) ack() {
	if d.sounds != nil {
		d.sounds.Play(sound.Acknowledge)
	}
}
