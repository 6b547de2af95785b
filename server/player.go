package main

import "math"

const (
	PlayerHalfWidth  = 0.5 // box is 1 x 2 x 1
	PlayerHalfHeight = 1.0
	PlayerMaxPitch   = 1.4 // radians, camera/aim only
	ShotHeight       = 1.5 // projectile spawn height above the player's center
)

// PlayerSpawn is where every session starts
var PlayerSpawn = Vec3{0, 5, 0}

// Player is the single locally-simulated character of a session
type Player struct {
	Pos      Vec3
	Vel      Vec3
	Yaw      float64
	Pitch    float64
	Grounded bool
	Coins    int
	Tripping bool
}

// NewPlayer creates a player at spawn
func NewPlayer() *Player {
	p := &Player{}
	p.Reset()
	return p
}

// Reset puts the player back at spawn with nothing banked
func (p *Player) Reset() {
	*p = Player{Pos: PlayerSpawn}
}

// Box returns the player's bounding box
func (p *Player) Box() AABB {
	return BoxFromCenter(p.Pos, Vec3{PlayerHalfWidth, PlayerHalfHeight, PlayerHalfWidth})
}

// Feet returns the y of the bottom of the player
func (p *Player) Feet() float64 {
	return p.Pos[1] - PlayerHalfHeight
}

// Head returns the y of the top of the player
func (p *Player) Head() float64 {
	return p.Pos[1] + PlayerHalfHeight
}

// Forward is the horizontal unit vector the player faces
func (p *Player) Forward() Vec3 {
	return Vec3{-math.Sin(p.Yaw), 0, -math.Cos(p.Yaw)}
}

// Right is the horizontal unit vector to the player's right
func (p *Player) Right() Vec3 {
	return Vec3{math.Cos(p.Yaw), 0, -math.Sin(p.Yaw)}
}

// Aim is the unit vector shots travel along, including pitch
func (p *Player) Aim() Vec3 {
	cp := math.Cos(p.Pitch)
	return Vec3{-math.Sin(p.Yaw) * cp, math.Sin(p.Pitch), -math.Cos(p.Yaw) * cp}
}

// Look applies raw look deltas; yaw turns instantly, pitch is clamped
func (p *Player) Look(dYaw, dPitch float64) {
	p.Yaw = NormalizeAngle(p.Yaw + dYaw)
	p.Pitch = Clamp(p.Pitch+dPitch, -PlayerMaxPitch, PlayerMaxPitch)
}

// Penalize removes up to n banked coins
func (p *Player) Penalize(n int) {
	p.Coins -= n
	if p.Coins < 0 {
		p.Coins = 0
	}
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	return PlayerState{
		X:        round2(p.Pos[0]),
		Y:        round2(p.Pos[1]),
		Z:        round2(p.Pos[2]),
		VX:       round2(p.Vel[0]),
		VY:       round2(p.Vel[1]),
		VZ:       round2(p.Vel[2]),
		Yaw:      round2(p.Yaw),
		Pitch:    round2(p.Pitch),
		Grounded: p.Grounded,
		Coins:    p.Coins,
		Tripping: p.Tripping,
	}
}
