package main

// CombatReport summarizes what the enemy and projectile pass did this tick
type CombatReport struct {
	CoinsPicked   int
	EnemiesKilled int
	Penalized     bool // enemy contact cost coins
	Caught        bool // enemy contact with nothing to lose
}

// UpdateEnemies billboards and hovers every enemy
func UpdateEnemies(w *World, elapsed float64, t Tuning) {
	for _, e := range w.Enemies {
		e.Update(w.Player.Pos, elapsed, t)
	}
}

// UpdateProjectiles advances every shot. A shot touching an enemy removes
// both, even on the tick its life runs out; otherwise expired shots are
// removed. Returns the number of enemies destroyed.
func UpdateProjectiles(w *World, dt float64, t Tuning) int {
	killed := 0
	for i := 0; i < len(w.Projectiles); i++ {
		pr := w.Projectiles[i]
		pr.Update(dt)
		if ei := hitEnemy(pr, w.Enemies, t.ProjectileHitScale); ei >= 0 {
			w.RemoveEnemy(ei)
			w.RemoveProjectile(i)
			i--
			killed++
			continue
		}
		if !pr.Alive {
			w.RemoveProjectile(i)
			i--
		}
	}
	return killed
}

// ResolveEnemyHit applies the first enemy touching the player. With coins
// banked it costs coins, knocks the player back and removes the enemy.
// With none, the player is caught.
func ResolveEnemyHit(w *World, t Tuning) (penalized, caught bool) {
	i := ResolveEnemyContact(w.Player, w.Enemies)
	if i < 0 {
		return false, false
	}
	p := w.Player
	if p.Coins == 0 {
		return false, true
	}
	p.Penalize(t.CoinPenalty)
	knockbackFrom(p, w.Enemies[i].Pos, t)
	w.RemoveEnemy(i)
	return true, false
}

// RunCombat is the per-tick enemy, projectile and coin pass
func RunCombat(w *World, elapsed, dt float64, t Tuning) CombatReport {
	var r CombatReport
	UpdateEnemies(w, elapsed, t)
	r.EnemiesKilled = UpdateProjectiles(w, dt, t)
	for _, c := range w.Coins {
		c.Update(dt, t.CoinSpinRate)
	}
	r.CoinsPicked = collectCoins(w, t.CoinPickupRadius)
	r.Penalized, r.Caught = ResolveEnemyHit(w, t)
	return r
}
