package main

import "math"

// HitTest reports whether a and b are closer than radius
func HitTest(a, b Vec3, radius float64) bool {
	d := b.Sub(a)
	return d.Dot(d) < radius*radius
}

// ResolveLateral pushes the player out of platform walls on the XZ plane.
// A platform only blocks when the player's feet are below its top (with
// tolerance) and the player's head is above its underside, so walking
// onto a surface and passing beneath one are both left alone.
func ResolveLateral(p *Player, platforms []*Platform, tolerance float64) {
	for _, pl := range platforms {
		if p.Feet() >= pl.Top()-tolerance || p.Head() <= pl.Bottom() {
			continue
		}
		ox := clearance(p, pl, AxisX)
		oz := clearance(p, pl, AxisZ)
		if ox <= 0 || oz <= 0 {
			continue
		}
		if ox < oz {
			pushAxis(p, AxisX, ox, pl.Center[0])
		} else {
			pushAxis(p, AxisZ, oz, pl.Center[2])
		}
	}
}

// clearance is how far the player must move along axis to leave the
// platform's footprint, measured from the centers so a fully contained
// player is pushed all the way out
func clearance(p *Player, pl *Platform, axis int) float64 {
	return pl.Half[axis] + PlayerHalfWidth - math.Abs(p.Pos[axis]-pl.Center[axis])
}

// pushAxis moves the player depth units away from center on one axis and
// stops any motion back into the wall
func pushAxis(p *Player, axis int, depth, center float64) {
	if p.Pos[axis] < center {
		p.Pos[axis] -= depth
		if p.Vel[axis] > 0 {
			p.Vel[axis] = 0
		}
	} else {
		p.Pos[axis] += depth
		if p.Vel[axis] < 0 {
			p.Vel[axis] = 0
		}
	}
}

// ResolveVertical lands the player on platform tops and bumps its head on
// undersides. prevY is the player's y before this tick's vertical
// integration. Returns the platform landed on, if any.
func ResolveVertical(p *Player, platforms []*Platform, prevY, elapsed, dt float64, t Tuning) *Platform {
	p.Grounded = false
	var landed *Platform
	prevFeet := prevY - PlayerHalfHeight
	for _, pl := range platforms {
		pb := p.Box().Shrink(t.EdgeShrink, 0, t.EdgeShrink)
		bb := pl.Box()
		top := pl.Top()
		overlapXZ := Penetration(pb, bb, AxisX) >= 0 && Penetration(pb, bb, AxisZ) >= 0
		if !overlapXZ {
			continue
		}
		crossed := prevFeet >= top && p.Feet() <= top
		if !pb.Intersects(bb) && !crossed {
			continue
		}

		switch {
		case p.Vel[1] <= 0 && (crossed || p.Pos[1] >= pl.Center[1]):
			p.Pos[1] = top + PlayerHalfHeight
			p.Vel[1] = 0
			p.Grounded = true
			landed = pl
		case p.Vel[1] > 0 && p.Pos[1] < pl.Center[1]:
			p.Pos[1] = pl.Bottom() - PlayerHalfHeight
			p.Vel[1] = -p.Vel[1] * t.HeadBumpRestitution
		}
	}
	if landed != nil && landed.Moving() {
		p.Pos[0] += landed.VelocityX(elapsed) * dt
	}
	return landed
}

// ResolveEnemyContact reports the index of the first alive enemy touching
// the player, or -1
func ResolveEnemyContact(p *Player, enemies []*Enemy) int {
	for i, e := range enemies {
		if e.Alive && HitTest(p.Pos, e.Pos, e.HitRadius) {
			return i
		}
	}
	return -1
}

// knockbackFrom launches the player up and away from src
func knockbackFrom(p *Player, src Vec3, t Tuning) {
	away := Normalize(Vec3{p.Pos[0] - src[0], 0, p.Pos[2] - src[2]})
	if away.Len() == 0 {
		away = Vec3{0, 0, 1}
	}
	p.Vel[1] = t.KnockbackUp
	p.Vel = p.Vel.Add(away.Mul(t.KnockbackBack))
	p.Grounded = false
}

// hitEnemy returns the index of the first alive enemy the projectile is
// touching, or -1
func hitEnemy(pr *Projectile, enemies []*Enemy, scale float64) int {
	for i, e := range enemies {
		if e.Alive && HitTest(pr.Pos, e.Pos, e.HitRadius*scale) {
			return i
		}
	}
	return -1
}

// sanitizeDT bounds an untrusted frame delta
func sanitizeDT(dt, max float64) float64 {
	switch {
	case math.IsNaN(dt) || dt <= 0:
		return 0
	case dt > max:
		return max
	}
	return dt
}
