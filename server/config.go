package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"fps-server/ballistics"
)

// Collision layers used by the world query.
const (
	LayerDefault uint32 = 1 << iota
	LayerPlayer
	LayerEnemy
	LayerProp

	LayerAll = ^uint32(0)
)

var ErrInvalidConfig = errors.New("invalid config")

// Point is a YAML friendly 3D coordinate.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (p Point) Vec() mgl64.Vec3 { return mgl64.Vec3{p.X, p.Y, p.Z} }

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	DBPath    string `yaml:"db"`
	ClientDir string `yaml:"client_dir"`
	PublicURL string `yaml:"public_url"` // base for join links and QR codes
	LogLevel  string `yaml:"log_level"`
}

type WeaponConfig struct {
	MagazineSize  int     `yaml:"magazine_size"`
	FireTime      float64 `yaml:"fire_time"`   // seconds between shots
	ReloadTime    float64 `yaml:"reload_time"` // seconds
	Penetration   float64 `yaml:"penetration"`
	Damage        float64 `yaml:"damage"`
	MaxRange      float64 `yaml:"max_range"`
	CollisionMask uint32  `yaml:"collision_mask"`
	// MaxOriginDrift bounds how far a networked fire origin may sit from
	// the shooter's eye before the server substitutes its own.
	MaxOriginDrift float64 `yaml:"max_origin_drift"`
}

type BallisticsConfig struct {
	ballistics.Config `yaml:",inline"`
	TracerScale       float64 `yaml:"tracer_scale"`
	TraceDuration     float64 `yaml:"trace_duration"` // seconds
}

type PlayerConfig struct {
	MaxHealth    float64 `yaml:"max_health"`
	MoveSpeed    float64 `yaml:"move_speed"`
	JumpForce    float64 `yaml:"jump_force"`
	Gravity      float64 `yaml:"gravity"`
	RespawnDelay float64 `yaml:"respawn_delay"` // seconds
	EyeHeight    float64 `yaml:"eye_height"`
	HitHeight    float64 `yaml:"hit_height"`
	HitRadius    float64 `yaml:"hit_radius"`
	Resistance   float64 `yaml:"resistance"`
}

type EnemyConfig struct {
	MaxHealth         float64 `yaml:"max_health"`
	ViewDistance      float64 `yaml:"view_distance"`
	MinDistance       float64 `yaml:"min_distance"` // seen regardless of angle
	ViewAngle         float64 `yaml:"view_angle"`   // degrees
	Damage            float64 `yaml:"damage"`
	FireInterval      float64 `yaml:"fire_interval"` // seconds
	MoveSpeed         float64 `yaml:"move_speed"`
	TurnSpeed         float64 `yaml:"turn_speed"` // radians/s
	EngageDistance    float64 `yaml:"engage_distance"`
	ArriveDistance    float64 `yaml:"arrive_distance"`
	PropMoveThreshold float64 `yaml:"prop_move_threshold"`
	RespawnDelay      float64 `yaml:"respawn_delay"`
	HitHeight         float64 `yaml:"hit_height"`
	HitRadius         float64 `yaml:"hit_radius"`
	Resistance        float64 `yaml:"resistance"`
}

type SpawnPoint struct {
	Pos Point   `yaml:"pos"`
	Yaw float64 `yaml:"yaw"`
}

type WallDef struct {
	ID       string `yaml:"id"`
	Min      Point  `yaml:"min"`
	Max      Point  `yaml:"max"`
	Material string `yaml:"material"`
}

type PropDef struct {
	ID         string  `yaml:"id"`
	Min        Point   `yaml:"min"`
	Max        Point   `yaml:"max"`
	Health     float64 `yaml:"health"`
	Resistance float64 `yaml:"resistance"`
	Material   string  `yaml:"material"`
}

type EnemyDef struct {
	ID  string  `yaml:"id"`
	Pos Point   `yaml:"pos"`
	Yaw float64 `yaml:"yaw"`
}

type ArenaConfig struct {
	CellSize    float64      `yaml:"cell_size"`
	SpawnPoints []SpawnPoint `yaml:"spawn_points"`
	WalkPoints  []Point      `yaml:"walk_points"`
	Walls       []WallDef    `yaml:"walls"`
	Props       []PropDef    `yaml:"props"`
	Enemies     []EnemyDef   `yaml:"enemies"`
}

type Config struct {
	Server        ServerConfig     `yaml:"server"`
	TickRate      int              `yaml:"tick_rate"`
	BroadcastRate int              `yaml:"broadcast_rate"`
	MaxPlayers    int              `yaml:"max_players"`
	Weapon        WeaponConfig     `yaml:"weapon"`
	Ballistics    BallisticsConfig `yaml:"ballistics"`
	Player        PlayerConfig     `yaml:"player"`
	Enemy         EnemyConfig      `yaml:"enemy"`
	Arena         ArenaConfig      `yaml:"arena"`
}

// DefaultConfig returns the stock tuning and a small walled arena.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:     ":8080",
			DBPath:   "fps.db",
			LogLevel: "info",
		},
		TickRate:      60,
		BroadcastRate: 20,
		MaxPlayers:    16,
		Weapon: WeaponConfig{
			MagazineSize:   5,
			FireTime:       0.2,
			ReloadTime:     2.35,
			Penetration:    10,
			Damage:         10,
			MaxRange:       40,
			CollisionMask:  LayerAll,
			MaxOriginDrift: 2,
		},
		Ballistics: BallisticsConfig{
			Config:        ballistics.DefaultConfig(),
			TracerScale:   ballistics.DefaultTracerScale,
			TraceDuration: 1,
		},
		Player: PlayerConfig{
			MaxHealth:    20,
			MoveSpeed:    5,
			JumpForce:    10,
			Gravity:      25,
			RespawnDelay: 2,
			EyeHeight:    1.6,
			HitHeight:    1.0,
			HitRadius:    0.6,
			Resistance:   4,
		},
		Enemy: EnemyConfig{
			MaxHealth:         40,
			ViewDistance:      50,
			MinDistance:       3,
			ViewAngle:         90,
			Damage:            34,
			FireInterval:      1.5,
			MoveSpeed:         3.5,
			TurnSpeed:         4,
			EngageDistance:    8,
			ArriveDistance:    1,
			PropMoveThreshold: 0.5,
			RespawnDelay:      10,
			HitHeight:         1.0,
			HitRadius:         0.6,
			Resistance:        6,
		},
		Arena: ArenaConfig{
			CellSize: 4,
			SpawnPoints: []SpawnPoint{
				{Pos: Point{X: -18, Z: -18}, Yaw: 0.785},
				{Pos: Point{X: 18, Z: -18}, Yaw: -0.785},
				{Pos: Point{X: -18, Z: 18}, Yaw: 2.356},
				{Pos: Point{X: 18, Z: 18}, Yaw: -2.356},
			},
			WalkPoints: []Point{{X: 0, Z: 10}, {X: 10, Z: 0}, {X: 0, Z: -10}, {X: -10, Z: 0}},
			Walls: []WallDef{
				{ID: "wall-n", Min: Point{X: -25, Z: 24}, Max: Point{X: 25, Y: 4, Z: 25}, Material: "concrete"},
				{ID: "wall-s", Min: Point{X: -25, Z: -25}, Max: Point{X: 25, Y: 4, Z: -24}, Material: "concrete"},
				{ID: "wall-e", Min: Point{X: 24, Z: -25}, Max: Point{X: 25, Y: 4, Z: 25}, Material: "concrete"},
				{ID: "wall-w", Min: Point{X: -25, Z: -25}, Max: Point{X: -24, Y: 4, Z: 25}, Material: "concrete"},
				{ID: "pillar", Min: Point{X: -1, Z: -1}, Max: Point{X: 1, Y: 4, Z: 1}, Material: "concrete"},
			},
			Props: []PropDef{
				{ID: "crate-1", Min: Point{X: 5, Z: 5}, Max: Point{X: 6, Y: 1, Z: 6}, Health: 30, Resistance: 3, Material: "wood"},
				{ID: "crate-2", Min: Point{X: -6, Z: 5}, Max: Point{X: -5, Y: 1, Z: 6}, Health: 30, Resistance: 3, Material: "wood"},
				{ID: "barrel-1", Min: Point{X: 5, Z: -6}, Max: Point{X: 6, Y: 1.2, Z: -5}, Health: 50, Resistance: 7, Material: "metal"},
			},
			Enemies: []EnemyDef{
				{ID: "enemy-1", Pos: Point{X: 0, Z: 12}},
			},
		},
	}
}

// LoadConfig overlays a YAML file on DefaultConfig. An empty path yields
// the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects tuning the resolver or tick loop cannot run with.
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("%w: tick_rate must be positive", ErrInvalidConfig)
	}
	if c.BroadcastRate <= 0 || c.BroadcastRate > c.TickRate {
		return fmt.Errorf("%w: broadcast_rate must be in 1..tick_rate", ErrInvalidConfig)
	}
	w := c.Weapon
	if w.MagazineSize <= 0 {
		return fmt.Errorf("%w: weapon.magazine_size must be positive", ErrInvalidConfig)
	}
	if w.FireTime < 0 || w.ReloadTime < 0 {
		return fmt.Errorf("%w: weapon timings must not be negative", ErrInvalidConfig)
	}
	if _, err := ballistics.NewShot(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, w.Penetration, w.Damage, w.MaxRange, w.CollisionMask); err != nil {
		return fmt.Errorf("%w: weapon: %w", ErrInvalidConfig, err)
	}
	if err := c.Ballistics.Config.Validate(); err != nil {
		return fmt.Errorf("%w: ballistics: %w", ErrInvalidConfig, err)
	}
	if c.Player.MaxHealth <= 0 || c.Enemy.MaxHealth <= 0 {
		return fmt.Errorf("%w: max_health must be positive", ErrInvalidConfig)
	}
	if c.Arena.CellSize <= 0 {
		return fmt.Errorf("%w: arena.cell_size must be positive", ErrInvalidConfig)
	}
	return nil
}
