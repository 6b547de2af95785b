package main

import (
	"errors"
	"fmt"
)

// MatchPhase represents the lifecycle of a run
type MatchPhase int

const (
	PhaseStart   MatchPhase = 0
	PhasePlaying MatchPhase = 1
	PhasePaused  MatchPhase = 2
	PhaseEnded   MatchPhase = 3
)

func (p MatchPhase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseEnded:
		return "ended"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Outcome of an ended run
type Outcome int

const (
	OutcomeNone    Outcome = 0
	OutcomeWin     Outcome = 1
	OutcomeLoss    Outcome = 2
	OutcomeAborted Outcome = 3 // ended by a broken invariant
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	case OutcomeAborted:
		return "aborted"
	}
	return ""
}

// End reasons
const (
	ReasonFell   = "fell"
	ReasonCaught = "caught"
	ReasonGoal   = "reached the castle"
)

var (
	ErrNotReady      = errors.New("model or world not loaded")
	ErrBadTransition = errors.New("invalid phase transition")
)

// MatchState is the session state machine:
// start -> playing -> {paused <-> playing} -> ended.
type MatchState struct {
	Phase       MatchPhase
	Elapsed     float64 // simulated seconds while playing
	Outcome     Outcome
	Reason      string
	ModelLoaded bool
	WorldLoaded bool
}

// Ready reports whether both async loads have finished
func (ms *MatchState) Ready() bool {
	return ms.ModelLoaded && ms.WorldLoaded
}

// Start moves start -> playing
func (ms *MatchState) Start() error {
	if ms.Phase != PhaseStart {
		return fmt.Errorf("%w: start from %s", ErrBadTransition, ms.Phase)
	}
	if !ms.Ready() {
		return ErrNotReady
	}
	ms.Phase = PhasePlaying
	ms.Elapsed = 0
	return nil
}

// Pause moves playing -> paused. Returns false when not playing.
func (ms *MatchState) Pause() bool {
	if ms.Phase != PhasePlaying {
		return false
	}
	ms.Phase = PhasePaused
	return true
}

// Resume moves paused -> playing. Returns false when not paused.
func (ms *MatchState) Resume() bool {
	if ms.Phase != PhasePaused {
		return false
	}
	ms.Phase = PhasePlaying
	return true
}

// End moves playing -> ended with the given result. Only the first
// terminal condition of a run is recorded.
func (ms *MatchState) End(outcome Outcome, reason string) bool {
	if ms.Phase != PhasePlaying {
		return false
	}
	ms.Phase = PhaseEnded
	ms.Outcome = outcome
	ms.Reason = reason
	return true
}

// Reset returns to start for a fresh run, keeping readiness
func (ms *MatchState) Reset() {
	*ms = MatchState{ModelLoaded: ms.ModelLoaded, WorldLoaded: ms.WorldLoaded}
}

// EvaluateGoal decides a run that reached the goal
func EvaluateGoal(coins, minCoins int) (Outcome, string) {
	if coins >= minCoins {
		return OutcomeWin, ReasonGoal
	}
	return OutcomeLoss, fmt.Sprintf("not enough coins (%d/%d)", coins, minCoins)
}

// checkInvariants returns a diagnostic for a corrupted player, or ""
func checkInvariants(p *Player) string {
	if !finiteVec(p.Pos) {
		return fmt.Sprintf("invariant: position %v", p.Pos)
	}
	if !finiteVec(p.Vel) {
		return fmt.Sprintf("invariant: velocity %v", p.Vel)
	}
	if p.Coins < 0 {
		return fmt.Sprintf("invariant: coins %d", p.Coins)
	}
	return ""
}
