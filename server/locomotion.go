package main

// ApplyLocomotion turns intent and gravity into the player's new velocity.
// It does not move the player; see IntegrateXZ and IntegrateY.
func ApplyLocomotion(p *Player, in Intent, gravity, dt float64, t Tuning) {
	// Damping decays horizontal speed toward zero without crossing it
	k := Clamp(1-t.Damping*dt, 0, 1)
	p.Vel[0] *= k
	p.Vel[2] *= k

	p.Vel[1] -= gravity * dt

	move := p.Forward().Mul(in.Forward - in.Back).Add(p.Right().Mul(in.Right - in.Left))
	if l := move.Len(); l > 1 {
		move = move.Mul(1 / l)
	}
	accel := t.MoveSpeed * t.Damping * dt
	p.Vel[0] += move[0] * accel
	p.Vel[2] += move[2] * accel

	if in.Jump && p.Grounded {
		p.Vel[1] = t.JumpSpeed
		p.Grounded = false
	}
}

// IntegrateXZ moves the player horizontally and resolves walls
func IntegrateXZ(p *Player, platforms []*Platform, dt float64, t Tuning) {
	p.Pos[0] += p.Vel[0] * dt
	p.Pos[2] += p.Vel[2] * dt
	ResolveLateral(p, platforms, t.LateralTolerance)
}

// IntegrateY moves the player vertically and resolves floors and ceilings
func IntegrateY(p *Player, platforms []*Platform, elapsed, dt float64, t Tuning) *Platform {
	prevY := p.Pos[1]
	p.Pos[1] += p.Vel[1] * dt
	return ResolveVertical(p, platforms, prevY, elapsed, dt, t)
}
