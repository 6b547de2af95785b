package main

import (
	"math"
	"testing"
)

func TestInputBufferLatchesEdges(t *testing.T) {
	var b InputBuffer
	b.Push(ClientInput{F: 1, J: true, LY: 0.1})
	b.Push(ClientInput{F: 0.5, LY: 0.2, LP: -0.1})

	in := b.Take()
	if !in.Jump {
		t.Error("jump pressed between ticks should survive a later message")
	}
	if in.Forward != 0.5 {
		t.Errorf("analog axis should keep the latest value, got %v", in.Forward)
	}
	if !approx(in.LookYaw, 0.3) || !approx(in.LookPitch, -0.1) {
		t.Errorf("look deltas should add up, got %v %v", in.LookYaw, in.LookPitch)
	}

	next := b.Take()
	if next.Jump || next.LookYaw != 0 {
		t.Error("take should clear edges and look deltas")
	}
	if next.Forward != 0.5 {
		t.Errorf("held axis should persist, got %v", next.Forward)
	}

	b.Clear()
	if b.Take() != (Intent{}) {
		t.Error("clear should drop held axes")
	}
}

func TestInputBufferSanitizes(t *testing.T) {
	var b InputBuffer
	b.Push(ClientInput{F: 5, B: -1, L: math.NaN(), LY: math.Inf(1)})
	in := b.Take()
	if in.Forward != 1 || in.Back != 0 || in.Left != 0 || in.LookYaw != 0 {
		t.Errorf("bad values should be clamped or dropped, got %+v", in)
	}
}

func TestMergeIntent(t *testing.T) {
	desk := Intent{Forward: 1, LookYaw: 0.1}
	pad := Intent{Forward: 0.3, Right: 0.7, Jump: true, LookYaw: 0.2}
	m := mergeIntent(desk, pad)
	if m.Forward != 1 || m.Right != 0.7 || !m.Jump {
		t.Errorf("unexpected merge %+v", m)
	}
	if !approx(m.LookYaw, 0.3) {
		t.Errorf("look deltas should add, got %v", m.LookYaw)
	}
}

func TestDecodeBinaryInputKeys(t *testing.T) {
	// forward + jump, yaw +0.25 rad, pitch -0.1 rad, joystick idle
	msg := []byte{0x01, inFwd | inJump, 0x00, 0xFA, 0xFF, 0x9C, 0, 0}
	in, ok := DecodeBinaryInput(msg)
	if !ok {
		t.Fatal("valid frame rejected")
	}
	if in.F != 1 || in.B != 0 || !in.J || in.S {
		t.Errorf("unexpected keys %+v", in)
	}
	if !approx(in.LY, 0.25) || !approx(in.LP, -0.1) {
		t.Errorf("unexpected look %v %v", in.LY, in.LP)
	}
}

func TestDecodeBinaryInputJoystickOverridesKeys(t *testing.T) {
	// stick pushed fully up and half right while the back key is held
	msg := []byte{0x01, inBack, 0, 0, 0, 0, 64, 0x81}
	in, ok := DecodeBinaryInput(msg)
	if !ok {
		t.Fatal("valid frame rejected")
	}
	if in.F != 1 || in.B != 0 {
		t.Errorf("stick up should be full forward, got f=%v b=%v", in.F, in.B)
	}
	if math.Abs(in.R-64.0/127) > 1e-9 || in.L != 0 {
		t.Errorf("unexpected strafe %v %v", in.L, in.R)
	}
}

func TestDecodeBinaryInputRejectsMalformed(t *testing.T) {
	for _, msg := range [][]byte{
		nil,
		{0x01, 0, 0},
		{0x02, 0, 0, 0, 0, 0, 0, 0},
		{0x01, 0, 0, 0, 0, 0, 0, 0, 0},
	} {
		if _, ok := DecodeBinaryInput(msg); ok {
			t.Errorf("frame %v should be rejected", msg)
		}
	}
}
