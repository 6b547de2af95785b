package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
)

// MainWorldID is the shared level every session plays
const MainWorldID = "main_world"

// StatusOfflineWorld is shown when the level store could not be reached
const StatusOfflineWorld = "world load failed, using offline layout"

// PlatformSpec is one platform placement; W, H, D are full sizes.
// Speed and Range are set for moving platforms.
type PlatformSpec struct {
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Z     float64 `json:"z" msgpack:"z"`
	W     float64 `json:"w" msgpack:"w"`
	H     float64 `json:"h" msgpack:"h"`
	D     float64 `json:"d" msgpack:"d"`
	Speed float64 `json:"speed,omitempty" msgpack:"speed,omitempty"`
	Range float64 `json:"range,omitempty" msgpack:"range,omitempty"`
}

// Point is a coin or enemy placement
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Layout is the initial placement of everything in a world
type Layout struct {
	GoalZ     float64        `json:"goalZ" msgpack:"goalZ"`
	Platforms []PlatformSpec `json:"platforms" msgpack:"platforms"`
	Coins     []Point        `json:"coins" msgpack:"coins"`
	Enemies   []Point        `json:"enemies" msgpack:"enemies"`
}

// Empty reports whether the layout has nothing to stand on
func (l *Layout) Empty() bool {
	return l == nil || len(l.Platforms) == 0
}

// Generator odds and ranges
const (
	genStartZ       = -10.0
	genGoalGap      = 20.0
	genSpreadX      = 15.0
	genSpreadY      = 3.0
	genMinSize      = 3.0
	genMaxSize      = 8.0
	genMinHeight    = 1.0
	genMaxHeight    = 3.0
	genMinStep      = 4.0
	genMaxStep      = 8.0
	genMovingChance = 0.2
	genCoinChance   = 0.6
	genEnemyChance  = 0.3
	genCoinLift     = 1.0 // above the top surface
	genEnemyLift    = 3.0
)

func between(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// GenerateLayout scatters platforms from the start pad to the goal.
// The same seed always produces the same layout.
func GenerateLayout(goalZ float64, seed int64) *Layout {
	rng := rand.New(rand.NewSource(seed))
	l := &Layout{GoalZ: goalZ}
	l.Platforms = append(l.Platforms, PlatformSpec{X: 0, Y: -2, Z: 0, W: 10, H: 2, D: 10})

	for z := genStartZ; z > goalZ+genGoalGap; z -= between(rng, genMinStep, genMaxStep) {
		ps := PlatformSpec{
			X: between(rng, -genSpreadX, genSpreadX),
			Y: between(rng, -genSpreadY, genSpreadY),
			Z: z,
			W: between(rng, genMinSize, genMaxSize),
			H: between(rng, genMinHeight, genMaxHeight),
			D: between(rng, genMinSize, genMaxSize),
		}
		if rng.Float64() < genMovingChance {
			ps.Speed = between(rng, 2, 5)
			ps.Range = between(rng, 5, 10)
		}
		l.Platforms = append(l.Platforms, ps)

		top := ps.Y + ps.H/2
		if rng.Float64() < genCoinChance {
			l.Coins = append(l.Coins, Point{X: ps.X, Y: top + genCoinLift, Z: ps.Z})
		}
		if ps.Speed == 0 && rng.Float64() < genEnemyChance {
			l.Enemies = append(l.Enemies, Point{X: ps.X, Y: top + genEnemyLift, Z: ps.Z})
		}
	}

	l.Platforms = append(l.Platforms, PlatformSpec{X: 0, Y: 0, Z: goalZ, W: 20, H: 2, D: 20})
	return l
}

// LayoutStore is the shared level storage
type LayoutStore interface {
	GetLevel(ctx context.Context, id string) (*Layout, error)
	SaveLevel(ctx context.Context, id string, l *Layout) error
}

// LayoutCache keeps the last good layout on local disk
type LayoutCache interface {
	Load(id string) (*Layout, error)
	Save(id string, l *Layout) error
}

// WorldProvider resolves the level a session should play
type WorldProvider struct {
	store LayoutStore // may be nil
	cache LayoutCache // may be nil
	seed  int64
}

// NewWorldProvider creates a provider; store and cache are optional
func NewWorldProvider(store LayoutStore, cache LayoutCache, seed int64) *WorldProvider {
	return &WorldProvider{store: store, cache: cache, seed: seed}
}

// Fetch returns the shared layout. Store failures fall back to the offline
// cache, then to a local generation, and report a status for the HUD.
// The returned layout is never empty.
func (wp *WorldProvider) Fetch(ctx context.Context, goalZ float64) (*Layout, string) {
	if err := ctx.Err(); err != nil {
		return GenerateLayout(goalZ, wp.seed), StatusOfflineWorld
	}
	if wp.store == nil {
		return wp.offline(goalZ), ""
	}

	l, err := wp.store.GetLevel(ctx, MainWorldID)
	if err != nil {
		log.Printf("world: store unavailable: %v", err)
		return wp.offline(goalZ), StatusOfflineWorld
	}
	if l.Empty() {
		l = GenerateLayout(goalZ, wp.seed)
		if err := wp.store.SaveLevel(ctx, MainWorldID, l); err != nil {
			log.Printf("world: save generated level: %v", err)
		}
	}
	wp.remember(l)
	return l, ""
}

// offline returns the cached layout or a fresh generation
func (wp *WorldProvider) offline(goalZ float64) *Layout {
	if wp.cache != nil {
		l, err := wp.cache.Load(MainWorldID)
		if err != nil {
			log.Printf("world: offline cache: %v", err)
		} else if !l.Empty() {
			return l
		}
	}
	return GenerateLayout(goalZ, wp.seed)
}

func (wp *WorldProvider) remember(l *Layout) {
	if wp.cache == nil {
		return
	}
	if err := wp.cache.Save(MainWorldID, l); err != nil {
		log.Printf("world: cache save: %v", err)
	}
}

// describe is used in logs
func (l *Layout) describe() string {
	return fmt.Sprintf("%d platforms, %d coins, %d enemies", len(l.Platforms), len(l.Coins), len(l.Enemies))
}
