package main

import (
	"math"
	"testing"
)

func TestCameraSnapBehindPlayer(t *testing.T) {
	tn := DefaultTuning()
	p := NewPlayer()
	var c Camera
	c.Snap(p, tn)

	want := p.Pos.Add(Vec3{0, tn.CameraHeight, tn.CameraDistance})
	if Distance(c.Pos, want) > 1e-9 {
		t.Errorf("facing -z the camera should sit at +z, got %v want %v", c.Pos, want)
	}

	p.Yaw = math.Pi / 2
	c.Snap(p, tn)
	if !approx(c.Pos[0], p.Pos[0]+tn.CameraDistance) {
		t.Errorf("turned left the camera should swing to +x, got %v", c.Pos)
	}
}

func TestCameraFollowEases(t *testing.T) {
	tn := DefaultTuning()
	p := NewPlayer()
	var c Camera
	c.Snap(p, tn)
	start := c.Pos

	p.Pos = p.Pos.Add(Vec3{10, 0, 0})
	c.Follow(p, 1.0/60, tn)
	if c.Pos[0] <= start[0] || c.Pos[0] >= start[0]+10 {
		t.Errorf("camera should move part of the way, got x %v", c.Pos[0])
	}
	if c.Target != p.Pos.Add(Vec3{0, cameraLookHeight, 0}) {
		t.Error("camera should always look at the player")
	}

	c.Follow(p, 10, tn)
	if Distance(c.Pos, desiredCamera(p, tn)) > 1e-9 {
		t.Error("a long step should land exactly on the target spot")
	}
}
