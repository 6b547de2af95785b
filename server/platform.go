package main

import "math"

// Motion makes a platform oscillate along X
type Motion struct {
	Amplitude    float64 // units
	AngularSpeed float64 // rad/s
	AnchorX      float64
}

// Platform is a solid axis-aligned box
type Platform struct {
	ID     uint32
	Center Vec3
	Half   Vec3
	Motion *Motion // nil for static platforms
}

// Box returns the platform's bounding box
func (p *Platform) Box() AABB {
	return BoxFromCenter(p.Center, p.Half)
}

// Top returns the y of the walkable surface
func (p *Platform) Top() float64 {
	return p.Center[1] + p.Half[1]
}

// Bottom returns the y of the underside
func (p *Platform) Bottom() float64 {
	return p.Center[1] - p.Half[1]
}

// Moving reports whether the platform oscillates
func (p *Platform) Moving() bool {
	return p.Motion != nil
}

// Advance places a moving platform for the given simulation time
func (p *Platform) Advance(elapsed float64) {
	if p.Motion == nil {
		return
	}
	m := p.Motion
	p.Center[0] = m.AnchorX + math.Sin(elapsed*m.AngularSpeed)*m.Amplitude
}

// VelocityX is the instantaneous x velocity at the given simulation time
func (p *Platform) VelocityX(elapsed float64) float64 {
	if p.Motion == nil {
		return 0
	}
	m := p.Motion
	return math.Cos(elapsed*m.AngularSpeed) * m.Amplitude * m.AngularSpeed
}

// ToState converts to protocol state
func (p *Platform) ToState() PlatformState {
	return PlatformState{
		ID: p.ID,
		X:  round2(p.Center[0]),
		Y:  round2(p.Center[1]),
		Z:  round2(p.Center[2]),
		W:  round2(p.Half[0] * 2),
		H:  round2(p.Half[1] * 2),
		D:  round2(p.Half[2] * 2),
		M:  p.Motion != nil,
	}
}
