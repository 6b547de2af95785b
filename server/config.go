package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Tuning holds every gameplay constant. DefaultTuning is the canonical set;
// a YAML file may override individual fields.
type Tuning struct {
	BaseGravity float64 `yaml:"base_gravity"`
	TripGravity float64 `yaml:"trip_gravity"`
	JumpSpeed   float64 `yaml:"jump_speed"`
	MoveSpeed   float64 `yaml:"move_speed"`
	Damping     float64 `yaml:"damping"` // 1/s
	MaxDT       float64 `yaml:"max_dt"`

	LateralTolerance    float64 `yaml:"lateral_tolerance"`
	EdgeShrink          float64 `yaml:"edge_shrink"`
	HeadBumpRestitution float64 `yaml:"head_bump_restitution"`

	BuffDuration float64 `yaml:"buff_duration"`
	BuffLerpRate float64 `yaml:"buff_lerp_rate"`

	EnemyHitRadius     float64 `yaml:"enemy_hit_radius"`
	ProjectileHitScale float64 `yaml:"projectile_hit_scale"`
	ProjectileSpeed    float64 `yaml:"projectile_speed"`
	ProjectileLife     float64 `yaml:"projectile_life"`
	CoinPickupRadius   float64 `yaml:"coin_pickup_radius"`
	CoinSpinRate       float64 `yaml:"coin_spin_rate"`
	CoinPenalty        int     `yaml:"coin_penalty"`
	KnockbackUp        float64 `yaml:"knockback_up"`
	KnockbackBack      float64 `yaml:"knockback_back"`
	HoverAmplitude     float64 `yaml:"hover_amplitude"`
	HoverRate          float64 `yaml:"hover_rate"`

	DeathFloor    float64 `yaml:"death_floor"`
	GoalZ         float64 `yaml:"goal_z"`
	GoalReach     float64 `yaml:"goal_reach"`
	GoalHalfWidth float64 `yaml:"goal_half_width"`
	GoalMinY      float64 `yaml:"goal_min_y"`
	GoalMaxY      float64 `yaml:"goal_max_y"`
	MinCoinsToWin int     `yaml:"min_coins_to_win"`

	CameraDistance float64 `yaml:"camera_distance"`
	CameraHeight   float64 `yaml:"camera_height"`
	CameraLerpRate float64 `yaml:"camera_lerp_rate"`

	PresenceInterval  time.Duration `yaml:"presence_interval"`
	PresenceHeartbeat time.Duration `yaml:"presence_heartbeat"`
	PresenceEpsilon   float64       `yaml:"presence_epsilon"`
	PresenceStale     time.Duration `yaml:"presence_stale"`
}

// DefaultTuning returns the shipped constant set
func DefaultTuning() Tuning {
	return Tuning{
		BaseGravity: 30,
		TripGravity: 10,
		JumpSpeed:   15,
		MoveSpeed:   12,
		Damping:     10,
		MaxDT:       0.1,

		LateralTolerance:    0.1,
		EdgeShrink:          0.2,
		HeadBumpRestitution: 0.2,

		BuffDuration: 8,
		BuffLerpRate: 2,

		EnemyHitRadius:     2.5,
		ProjectileHitScale: 0.5,
		ProjectileSpeed:    30,
		ProjectileLife:     2,
		CoinPickupRadius:   1.5,
		CoinSpinRate:       3,
		CoinPenalty:        3,
		KnockbackUp:        10,
		KnockbackBack:      10,
		HoverAmplitude:     0.5,
		HoverRate:          2,

		DeathFloor:    -30,
		GoalZ:         -300,
		GoalReach:     5,
		GoalHalfWidth: 10,
		GoalMinY:      -5,
		GoalMaxY:      20,
		MinCoinsToWin: 10,

		CameraDistance: 8,
		CameraHeight:   4,
		CameraLerpRate: 12,

		PresenceInterval:  time.Second,
		PresenceHeartbeat: 2 * time.Second,
		PresenceEpsilon:   0.05,
		PresenceStale:     10 * time.Second,
	}
}

// Validate rejects constant sets the simulation cannot run with
func (t Tuning) Validate() error {
	switch {
	case t.TripGravity <= 0 || t.BaseGravity <= 0:
		return errors.New("gravity must be positive")
	case t.TripGravity > t.BaseGravity:
		return errors.New("trip_gravity must not exceed base_gravity")
	case t.MaxDT <= 0:
		return errors.New("max_dt must be positive")
	case t.Damping < 0:
		return errors.New("damping must not be negative")
	case t.BuffDuration <= 0:
		return errors.New("buff_duration must be positive")
	case t.CoinPenalty < 0 || t.MinCoinsToWin < 0:
		return errors.New("coin counts must not be negative")
	case t.PresenceStale <= 0:
		return errors.New("presence_stale must be positive")
	}
	return nil
}

// LoadTuning overlays the YAML file at path onto DefaultTuning.
// An empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Config is the process configuration
type Config struct {
	Addr       string
	ClientDir  string
	DBPath     string
	TuningPath string
	WorldSeed  int64
	CacheName  string // offline layout cache app name, empty disables
	JWTSecret  string
}

// LoadConfig reads .env (if present), then parses flags whose defaults come
// from the environment.
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	fs := flag.NewFlagSet("leibgame", flag.ContinueOnError)
	var cfg Config
	fs.StringVar(&cfg.Addr, "addr", envOr("LEIB_ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.ClientDir, "client", envOr("LEIB_CLIENT_DIR", ""), "Path to client directory (default: ../client)")
	fs.StringVar(&cfg.DBPath, "db", envOr("LEIB_DB", "leibgame.db"), "SQLite database path")
	fs.StringVar(&cfg.TuningPath, "tuning", envOr("LEIB_TUNING", ""), "YAML tuning overrides")
	fs.Int64Var(&cfg.WorldSeed, "seed", envInt64("LEIB_WORLD_SEED", 1), "World generator seed")
	fs.StringVar(&cfg.CacheName, "cache", envOr("LEIB_CACHE", "leibgame"), "Offline layout cache name (empty disables)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.JWTSecret = os.Getenv("LEIB_JWT_SECRET")
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("config: bad %s=%q, using %d", key, v, def)
		return def
	}
	return n
}
