package main

import "math"

// Intent is one tick's worth of player input
type Intent struct {
	Forward, Back, Left, Right float64 // 0..1
	Jump, Shoot, Ability       bool    // edges
	LookYaw, LookPitch         float64 // radians
}

// InputBuffer accumulates client input between ticks: analog axes keep the
// latest value, edges stay latched until taken, look deltas add up.
type InputBuffer struct {
	pending Intent
}

// Push merges one client input message
func (b *InputBuffer) Push(in ClientInput) {
	b.pending.Forward = axis(in.F)
	b.pending.Back = axis(in.B)
	b.pending.Left = axis(in.L)
	b.pending.Right = axis(in.R)
	b.pending.Jump = b.pending.Jump || in.J
	b.pending.Shoot = b.pending.Shoot || in.S
	b.pending.Ability = b.pending.Ability || in.A
	b.pending.LookYaw += finite(in.LY)
	b.pending.LookPitch += finite(in.LP)
}

// Take returns the merged intent and clears edges and look deltas.
// Analog axes persist until the client changes them.
func (b *InputBuffer) Take() Intent {
	in := b.pending
	b.pending.Jump = false
	b.pending.Shoot = false
	b.pending.Ability = false
	b.pending.LookYaw = 0
	b.pending.LookPitch = 0
	return in
}

// Clear drops everything, including held axes
func (b *InputBuffer) Clear() {
	b.pending = Intent{}
}

// mergeIntent combines two input sources: strongest axis wins, edges
// from either count, look deltas add up
func mergeIntent(a, b Intent) Intent {
	return Intent{
		Forward:   math.Max(a.Forward, b.Forward),
		Back:      math.Max(a.Back, b.Back),
		Left:      math.Max(a.Left, b.Left),
		Right:     math.Max(a.Right, b.Right),
		Jump:      a.Jump || b.Jump,
		Shoot:     a.Shoot || b.Shoot,
		Ability:   a.Ability || b.Ability,
		LookYaw:   a.LookYaw + b.LookYaw,
		LookPitch: a.LookPitch + b.LookPitch,
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func axis(v float64) float64 {
	return Clamp(finite(v), 0, 1)
}

// Binary input flags
const (
	inFwd     = 1 << 0
	inBack    = 1 << 1
	inLeft    = 1 << 2
	inRight   = 1 << 3
	inJump    = 1 << 4
	inShoot   = 1 << 5
	inAbility = 1 << 6
)

// DecodeBinaryInput decodes [0x01, flags, yaw_hi, yaw_lo, pitch_hi, pitch_lo, joyX, joyY].
// Look deltas are milliradians; a non-zero joystick overrides the direction keys.
func DecodeBinaryInput(msg []byte) (ClientInput, bool) {
	if len(msg) != 8 || msg[0] != 0x01 {
		return ClientInput{}, false
	}
	flags := msg[1]
	yaw := float64(int16(uint16(msg[2])<<8|uint16(msg[3]))) / 1000
	pitch := float64(int16(uint16(msg[4])<<8|uint16(msg[5]))) / 1000
	jx := float64(int8(msg[6])) / 127
	jy := float64(int8(msg[7])) / 127

	in := ClientInput{
		J:  flags&inJump != 0,
		S:  flags&inShoot != 0,
		A:  flags&inAbility != 0,
		LY: yaw,
		LP: pitch,
	}
	if jx != 0 || jy != 0 {
		// Joystick up (negative y) is forward
		in.F = math.Max(0, -jy)
		in.B = math.Max(0, jy)
		in.L = math.Max(0, -jx)
		in.R = math.Max(0, jx)
		return in, true
	}
	in.F = flagAxis(flags, inFwd)
	in.B = flagAxis(flags, inBack)
	in.L = flagAxis(flags, inLeft)
	in.R = flagAxis(flags, inRight)
	return in, true
}

func flagAxis(flags byte, bit byte) float64 {
	if flags&bit != 0 {
		return 1
	}
	return 0
}
