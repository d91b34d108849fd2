// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package avatar renders the UNIT-01 ASCII face shown beside the chat.
//
// The avatar is a small state machine: idle while waiting for input,
// thinking while a request is in flight, talking while tokens stream in,
// and error when the server is unreachable. Each state has a short frame
// cycle advanced on a UI tick.
package avatar

// State describes what the avatar is currently doing.
type State int

const (
	// StateIdle is the resting face.
	StateIdle State = iota
	// StateThinking is shown between sending a prompt and the first token.
	StateThinking
	// StateTalking is shown while tokens are streaming.
	StateTalking
	// StateError is shown when the server is down or a request failed.
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateThinking:
		return "thinking"
	case StateTalking:
		return "talking"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Width is the fixed column width of every frame.
const Width = 14

var idleFrames = [][]string{
	{
		`  .--------.  `,
		`  | [o][o] |  `,
		`  |  ____  |  `,
		`  |  ----  |  `,
		`  '--------'  `,
	},
	{
		`  .--------.  `,
		`  | [-][-] |  `,
		`  |  ____  |  `,
		`  |  ----  |  `,
		`  '--------'  `,
	},
}

var thinkingFrames = [][]string{
	{
		`  .--------.  `,
		`  | [o][o] |  `,
		`  |  .     |  `,
		`  |  ----  |  `,
		`  '--------'  `,
	},
	{
		`  .--------.  `,
		`  | [o][o] |  `,
		`  |  ..    |  `,
		`  |  ----  |  `,
		`  '--------'  `,
	},
	{
		`  .--------.  `,
		`  | [o][o] |  `,
		`  |  ...   |  `,
		`  |  ----  |  `,
		`  '--------'  `,
	},
}

var talkingFrames = [][]string{
	{
		`  .--------.  `,
		`  | [o][o] |  `,
		`  |  ____  |  `,
		`  |  |__|  |  `,
		`  '--------'  `,
	},
	{
		`  .--------.  `,
		`  | [o][o] |  `,
		`  |  ____  |  `,
		`  |  |--|  |  `,
		`  '--------'  `,
	},
	{
		`  .--------.  `,
		`  | [o][o] |  `,
		`  |  ____  |  `,
		`  |  ====  |  `,
		`  '--------'  `,
	},
}

var errorFrames = [][]string{
	{
		`  .--------.  `,
		`  | [x][x] |  `,
		`  |  ____  |  `,
		`  |  ~~~~  |  `,
		`  '--------'  `,
	},
	{
		`  .--------.  `,
		`  | [X][X] |  `,
		`  |  ____  |  `,
		`  |  ~~~~  |  `,
		`  '--------'  `,
	},
}

// Avatar holds the current state and frame position.
type Avatar struct {
	state State
	frame int
}

// New returns an idle avatar.
func New() *Avatar {
	return &Avatar{state: StateIdle}
}

// State returns the current state.
func (a *Avatar) State() State {
	return a.state
}

// SetState switches state and restarts the frame cycle. Setting the
// current state again is a no-op so the animation does not stutter.
func (a *Avatar) SetState(s State) {
	if s == a.state {
		return
	}
	a.state = s
	a.frame = 0
}

// Advance moves to the next frame in the current cycle.
func (a *Avatar) Advance() {
	a.frame = (a.frame + 1) % len(a.frames())
}

// Frame returns the lines of the current frame.
func (a *Avatar) Frame() []string {
	frames := a.frames()
	return frames[a.frame%len(frames)]
}

func (a *Avatar) frames() [][]string {
	switch a.state {
	case StateThinking:
		return thinkingFrames
	case StateTalking:
		return talkingFrames
	case StateError:
		return errorFrames
	default:
		return idleFrames
	}
}
