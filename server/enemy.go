package main

import "math"

// Enemy hovers over its platform and turns to face the player
type Enemy struct {
	ID        uint32
	Pos       Vec3
	AnchorY   float64
	Yaw       float64
	HitRadius float64
	Alive     bool
}

// NewEnemy creates an enemy hovering around pos
func NewEnemy(id uint32, pos Vec3, hitRadius float64) *Enemy {
	return &Enemy{
		ID:        id,
		Pos:       pos,
		AnchorY:   pos[1],
		HitRadius: hitRadius,
		Alive:     true,
	}
}

// Update billboards the enemy toward target and bobs it around its anchor
func (e *Enemy) Update(target Vec3, elapsed float64, t Tuning) {
	if !e.Alive {
		return
	}
	dx := target[0] - e.Pos[0]
	dz := target[2] - e.Pos[2]
	if dx != 0 || dz != 0 {
		e.Yaw = math.Atan2(dx, dz)
	}
	e.Pos[1] = e.AnchorY + math.Sin(elapsed*t.HoverRate)*t.HoverAmplitude
}

// ToState converts to protocol state
func (e *Enemy) ToState() EnemyState {
	return EnemyState{
		ID:  e.ID,
		X:   round2(e.Pos[0]),
		Y:   round2(e.Pos[1]),
		Z:   round2(e.Pos[2]),
		Yaw: round2(e.Yaw),
	}
}
