package main

import "math"

const cameraLookHeight = 2.0

// Camera is the third-person view published with each frame
type Camera struct {
	Pos    Vec3
	Target Vec3
}

// desiredCamera returns where the camera wants to sit behind p
func desiredCamera(p *Player, t Tuning) Vec3 {
	return p.Pos.Add(Vec3{
		math.Sin(p.Yaw) * t.CameraDistance,
		t.CameraHeight,
		math.Cos(p.Yaw) * t.CameraDistance,
	})
}

// Snap places the camera directly behind p
func (c *Camera) Snap(p *Player, t Tuning) {
	c.Pos = desiredCamera(p, t)
	c.Target = p.Pos.Add(Vec3{0, cameraLookHeight, 0})
}

// Follow eases the camera toward its spot behind p
func (c *Camera) Follow(p *Player, dt float64, t Tuning) {
	k := math.Min(t.CameraLerpRate*dt, 1)
	c.Pos = LerpVec(c.Pos, desiredCamera(p, t), k)
	c.Target = p.Pos.Add(Vec3{0, cameraLookHeight, 0})
}

// ToState converts to protocol state
func (c *Camera) ToState() CameraState {
	return CameraState{
		X:  round2(c.Pos[0]),
		Y:  round2(c.Pos[1]),
		Z:  round2(c.Pos[2]),
		TX: round2(c.Target[0]),
		TY: round2(c.Target[1]),
		TZ: round2(c.Target[2]),
	}
}
