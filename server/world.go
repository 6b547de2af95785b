package main

import (
	"errors"
	"fmt"
	"log"
)

// ErrInvalidPlatform is returned for platforms without positive extents
var ErrInvalidPlatform = errors.New("platform half-extents must be positive")

// Goal is the volume at the end of the course
type Goal struct {
	X, Z      float64
	Reach     float64 // how far before Z the volume starts
	HalfWidth float64
	MinY      float64
	MaxY      float64
}

// Reached reports whether pos is inside the goal volume
func (g Goal) Reached(pos Vec3) bool {
	if pos[2] > g.Z+g.Reach {
		return false
	}
	if pos[0] < g.X-g.HalfWidth || pos[0] > g.X+g.HalfWidth {
		return false
	}
	return pos[1] > g.MinY && pos[1] <= g.MaxY
}

// World holds everything one session simulates. It makes no decisions;
// every mutation comes from the tick.
type World struct {
	Player      *Player
	Platforms   []*Platform
	Coins       []*Coin
	Enemies     []*Enemy
	Projectiles []*Projectile
	Peers       []PeerPose
	Goal        Goal

	index  *PlatformIndex
	nextID uint32
}

// NewWorld creates an empty world with the player at spawn
func NewWorld(t Tuning) *World {
	return &World{
		Player: NewPlayer(),
		Goal: Goal{
			Z:         t.GoalZ,
			Reach:     t.GoalReach,
			HalfWidth: t.GoalHalfWidth,
			MinY:      t.GoalMinY,
			MaxY:      t.GoalMaxY,
		},
	}
}

func (w *World) newID() uint32 {
	w.nextID++
	return w.nextID
}

// AddPlatform adds a platform; the broad-phase is rebuilt lazily
func (w *World) AddPlatform(center, half Vec3, motion *Motion) (*Platform, error) {
	if !(half[0] > 0 && half[1] > 0 && half[2] > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlatform, half)
	}
	if !finiteVec(center) {
		return nil, fmt.Errorf("%w: center %v", ErrInvalidPlatform, center)
	}
	p := &Platform{ID: w.newID(), Center: center, Half: half, Motion: motion}
	w.Platforms = append(w.Platforms, p)
	w.index = nil
	return p, nil
}

// AddCoin adds a coin at pos
func (w *World) AddCoin(pos Vec3) *Coin {
	c := &Coin{ID: w.newID(), Pos: pos}
	w.Coins = append(w.Coins, c)
	return c
}

// AddEnemy adds an enemy hovering around pos
func (w *World) AddEnemy(pos Vec3, hitRadius float64) *Enemy {
	e := NewEnemy(w.newID(), pos, hitRadius)
	w.Enemies = append(w.Enemies, e)
	return e
}

// AddProjectile fires a shot from the player. Returns nil when the cap is reached.
func (w *World) AddProjectile(t Tuning) *Projectile {
	if len(w.Projectiles) >= maxProjectilesPerSession {
		return nil
	}
	p := NewProjectile(w.newID(), w.Player, t)
	w.Projectiles = append(w.Projectiles, p)
	return p
}

// RemoveCoin drops the coin at index i, keeping order
func (w *World) RemoveCoin(i int) {
	w.Coins = append(w.Coins[:i], w.Coins[i+1:]...)
}

// RemoveEnemy drops the enemy at index i, keeping order
func (w *World) RemoveEnemy(i int) {
	w.Enemies[i].Alive = false
	w.Enemies = append(w.Enemies[:i], w.Enemies[i+1:]...)
}

// RemoveProjectile drops the projectile at index i, keeping order
func (w *World) RemoveProjectile(i int) {
	w.Projectiles[i].Alive = false
	w.Projectiles = append(w.Projectiles[:i], w.Projectiles[i+1:]...)
}

// Reset clears every collection and puts the player back at spawn.
// Calling it twice is the same as calling it once.
func (w *World) Reset() {
	w.Player.Reset()
	w.Platforms = nil
	w.Coins = nil
	w.Enemies = nil
	w.Projectiles = nil
	w.Peers = nil
	w.index = nil
	w.nextID = 0
}

// Build populates the world from a layout. Invalid platforms are skipped.
func (w *World) Build(l *Layout, t Tuning) {
	for _, ps := range l.Platforms {
		var m *Motion
		if ps.Speed > 0 && ps.Range > 0 {
			m = &Motion{Amplitude: ps.Range, AngularSpeed: ps.Speed, AnchorX: ps.X}
		}
		if _, err := w.AddPlatform(Vec3{ps.X, ps.Y, ps.Z}, Vec3{ps.W / 2, ps.H / 2, ps.D / 2}, m); err != nil {
			log.Printf("world: skipping platform: %v", err)
		}
	}
	for _, c := range l.Coins {
		w.AddCoin(Vec3{c.X, c.Y, c.Z})
	}
	for _, e := range l.Enemies {
		w.AddEnemy(Vec3{e.X, e.Y, e.Z}, t.EnemyHitRadius)
	}
	if l.GoalZ != 0 {
		w.Goal.Z = l.GoalZ
	}
}

// Index returns the platform broad-phase, building it on first use
func (w *World) Index() *PlatformIndex {
	if w.index == nil && len(w.Platforms) > 0 {
		w.index = NewPlatformIndex(w.Platforms)
	}
	return w.index
}
