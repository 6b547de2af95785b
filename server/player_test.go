package main

import (
	"math"
	"testing"
)

func TestNewPlayer(t *testing.T) {
	p := NewPlayer()
	if p.Pos != PlayerSpawn {
		t.Errorf("expected spawn %v, got %v", PlayerSpawn, p.Pos)
	}
	if p.Coins != 0 || p.Grounded || p.Tripping {
		t.Errorf("new player should start empty, got %+v", p)
	}
}

func TestPlayerReset(t *testing.T) {
	p := NewPlayer()
	p.Pos = Vec3{10, -3, 40}
	p.Vel = Vec3{1, 2, 3}
	p.Coins = 7
	p.Tripping = true
	p.Yaw = 1

	p.Reset()
	if *p != *NewPlayer() {
		t.Errorf("reset player should equal a new one, got %+v", p)
	}
}

func TestPlayerBasis(t *testing.T) {
	p := NewPlayer()
	if f := p.Forward(); !approx(f[0], 0) || !approx(f[2], -1) {
		t.Errorf("forward at yaw 0 should be -z, got %v", f)
	}
	if r := p.Right(); !approx(r[0], 1) || !approx(r[2], 0) {
		t.Errorf("right at yaw 0 should be +x, got %v", r)
	}
	for _, yaw := range []float64{0.3, 1.2, -2.5, math.Pi} {
		p.Yaw = yaw
		if d := p.Forward().Dot(p.Right()); math.Abs(d) > 1e-12 {
			t.Errorf("yaw %v: forward and right not perpendicular (dot %v)", yaw, d)
		}
		if l := p.Aim().Len(); math.Abs(l-1) > 1e-12 {
			t.Errorf("yaw %v: aim not unit length (%v)", yaw, l)
		}
	}
}

func TestPlayerLook(t *testing.T) {
	p := NewPlayer()
	p.Look(0.5, 10)
	if p.Yaw != 0.5 {
		t.Errorf("yaw should turn instantly, got %v", p.Yaw)
	}
	if p.Pitch != PlayerMaxPitch {
		t.Errorf("pitch should clamp to %v, got %v", PlayerMaxPitch, p.Pitch)
	}
	p.Look(2*math.Pi, -20)
	if !approx(p.Yaw, 0.5) {
		t.Errorf("yaw should wrap, got %v", p.Yaw)
	}
	if p.Pitch != -PlayerMaxPitch {
		t.Errorf("pitch should clamp to %v, got %v", -PlayerMaxPitch, p.Pitch)
	}
}

func TestPlayerPenalize(t *testing.T) {
	p := NewPlayer()
	p.Coins = 5
	p.Penalize(3)
	if p.Coins != 2 {
		t.Errorf("expected 2 coins, got %d", p.Coins)
	}
	p.Penalize(3)
	if p.Coins != 0 {
		t.Errorf("coins should clamp at 0, got %d", p.Coins)
	}
}

func TestPlayerToState(t *testing.T) {
	p := NewPlayer()
	p.Pos = Vec3{1.234, 5.678, -9.999}
	p.Coins = 4
	s := p.ToState()
	if s.X != 1.23 || s.Y != 5.68 || s.Z != -10 {
		t.Errorf("expected rounded position, got %+v", s)
	}
	if s.Coins != 4 {
		t.Errorf("expected 4 coins, got %d", s.Coins)
	}
}
