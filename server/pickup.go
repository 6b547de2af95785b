package main

// Coin is a collectible floating above a platform
type Coin struct {
	ID   uint32
	Pos  Vec3
	Spin float64
}

// Update spins the coin
func (c *Coin) Update(dt, rate float64) {
	c.Spin = NormalizeAngle(c.Spin + rate*dt)
}

// ToState converts to protocol state
func (c *Coin) ToState() CoinState {
	return CoinState{
		ID:   c.ID,
		X:    round2(c.Pos[0]),
		Y:    round2(c.Pos[1]),
		Z:    round2(c.Pos[2]),
		Spin: round2(c.Spin),
	}
}

// collectCoins banks every coin within reach of the player, in insertion order.
// Returns how many were picked up.
func collectCoins(w *World, radius float64) int {
	n := 0
	for i := 0; i < len(w.Coins); i++ {
		if HitTest(w.Player.Pos, w.Coins[i].Pos, radius) {
			w.RemoveCoin(i)
			w.Player.Coins++
			n++
			i--
		}
	}
	return n
}
