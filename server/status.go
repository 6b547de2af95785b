package main

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const statusFade = 1.0 // seconds

// StatusLine is the HUD's transient message: shown at full alpha for a
// hold period, then faded out.
type StatusLine struct {
	Text  string
	Alpha float32
	hold  float64
	fade  *gween.Tween
}

// Show replaces the current message
func (s *StatusLine) Show(text string, hold float64) {
	s.Text = text
	s.Alpha = 1
	s.hold = hold
	s.fade = gween.New(1, 0, statusFade, ease.InQuad)
}

// Update advances the hold and fade
func (s *StatusLine) Update(dt float64) {
	if s.Text == "" {
		return
	}
	if s.hold > 0 {
		s.hold -= dt
		return
	}
	if s.fade == nil {
		return
	}
	alpha, done := s.fade.Update(float32(dt))
	s.Alpha = alpha
	if done {
		s.Text = ""
		s.Alpha = 0
		s.fade = nil
	}
}

// Clear drops the current message
func (s *StatusLine) Clear() {
	*s = StatusLine{}
}
