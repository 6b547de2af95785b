package main

import "math"

// Sky colors for the two buff states
var (
	FogNormal        = ColorHex(0x87CEEB)
	FogTripping      = ColorHex(0x00FF00)
	BackgroundNormal = ColorHex(0x87CEEB)
	BackgroundTrip   = ColorHex(0x113311)
)

const buffSnapEpsilon = 1e-4

// Buff is the timed low-gravity state. Gravity and sky colors never jump;
// they ease toward their targets every tick.
type Buff struct {
	Active         bool
	Timer          float64 // remaining seconds while active
	TargetGravity  float64
	CurrentGravity float64
	Fog            Color
	TargetFog      Color
	Background     Color
	TargetBg       Color
}

// NewBuff returns an inactive buff at rest
func NewBuff(t Tuning) Buff {
	return Buff{
		TargetGravity:  t.BaseGravity,
		CurrentGravity: t.BaseGravity,
		Fog:            FogNormal,
		TargetFog:      FogNormal,
		Background:     BackgroundNormal,
		TargetBg:       BackgroundNormal,
	}
}

// CanActivate returns true if the buff may start now
func (b *Buff) CanActivate(p *Player, playing bool) bool {
	return playing && p.Coins >= 1 && !b.Active
}

// Activate spends one coin and starts the countdown. Returns false and
// changes nothing when the buff cannot start.
func (b *Buff) Activate(p *Player, playing bool, t Tuning) bool {
	if !b.CanActivate(p, playing) {
		return false
	}
	p.Coins--
	p.Tripping = true
	b.Active = true
	b.Timer = t.BuffDuration
	b.TargetGravity = t.TripGravity
	b.TargetFog = FogTripping
	b.TargetBg = BackgroundTrip
	return true
}

// Update counts the buff down and eases gravity and colors toward their
// targets. Returns true on the tick the buff expires.
func (b *Buff) Update(dt float64, p *Player, t Tuning) bool {
	expired := false
	if b.Active {
		b.Timer -= dt
		if b.Timer <= 0 {
			b.Timer = 0
			b.Active = false
			p.Tripping = false
			b.TargetGravity = t.BaseGravity
			b.TargetFog = FogNormal
			b.TargetBg = BackgroundNormal
			expired = true
		}
	}

	k := math.Min(t.BuffLerpRate*dt, 1)
	b.CurrentGravity = Lerp(b.CurrentGravity, b.TargetGravity, k)
	if math.Abs(b.CurrentGravity-b.TargetGravity) < buffSnapEpsilon {
		b.CurrentGravity = b.TargetGravity
	}
	b.Fog = easeColor(b.Fog, b.TargetFog, k)
	b.Background = easeColor(b.Background, b.TargetBg, k)
	return expired
}

func easeColor(c, target Color, k float64) Color {
	c = LerpColor(c, target, k)
	if math.Abs(c.R-target.R) < buffSnapEpsilon &&
		math.Abs(c.G-target.G) < buffSnapEpsilon &&
		math.Abs(c.B-target.B) < buffSnapEpsilon {
		return target
	}
	return c
}
