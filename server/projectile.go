package main

const maxProjectilesPerSession = 50

// Projectile is a shot fired by the player
type Projectile struct {
	ID    uint32
	Pos   Vec3
	Vel   Vec3
	Life  float64
	Alive bool
}

// NewProjectile fires a shot from the player's chest along its aim
func NewProjectile(id uint32, owner *Player, t Tuning) *Projectile {
	aim := owner.Aim()
	return &Projectile{
		ID:    id,
		Pos:   owner.Pos.Add(Vec3{0, ShotHeight, 0}).Add(aim),
		Vel:   aim.Mul(t.ProjectileSpeed),
		Life:  t.ProjectileLife,
		Alive: true,
	}
}

// Update moves the projectile one tick
func (p *Projectile) Update(dt float64) {
	if !p.Alive {
		return
	}
	p.Pos = p.Pos.Add(p.Vel.Mul(dt))
	p.Life -= dt
	if p.Life <= 0 {
		p.Alive = false
	}
}

// ToState converts to protocol state
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		ID: p.ID,
		X:  round2(p.Pos[0]),
		Y:  round2(p.Pos[1]),
		Z:  round2(p.Pos[2]),
	}
}
