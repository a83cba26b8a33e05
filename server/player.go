package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"fps-server/ballistics"
)

// PlayerInput is the latest control state sent by a client.
type PlayerInput struct {
	MoveX    float64 `json:"mx"` // strafe axis, -1..1
	MoveZ    float64 `json:"mz"` // forward axis, -1..1
	Yaw      float64 `json:"yaw"`
	Pitch    float64 `json:"pitch"`
	Jump     bool    `json:"jump"`
	Fire     bool    `json:"fire"`
	Reload   bool    `json:"reload"`
	Disguise bool    `json:"disguise"` // hide as a prop
}

// Player is a connected shooter.
type Player struct {
	ID        string
	Name      string
	AuthID    int64 // 0 for guests
	Pos       mgl64.Vec3
	Vel       mgl64.Vec3
	Yaw       float64
	Pitch     float64
	Health    float64
	MaxHealth float64
	Alive     bool
	OnGround  bool
	Disguised bool
	RespawnT  float64
	LastSpawn int
	Gun       Gun
	Input     PlayerInput

	firePending   bool
	reloadPending bool
	cfg           *PlayerConfig
}

func NewPlayer(id, name string, cfg *Config) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Health:    cfg.Player.MaxHealth,
		MaxHealth: cfg.Player.MaxHealth,
		Alive:     true,
		OnGround:  true,
		LastSpawn: -1,
		Gun:       NewGun(cfg.Weapon),
		cfg:       &cfg.Player,
	}
}

// ApplyInput stores the control state. Fire and reload are latched until
// the next tick consumes them.
func (p *Player) ApplyInput(in PlayerInput) {
	in.MoveX = Clamp(in.MoveX, -1, 1)
	in.MoveZ = Clamp(in.MoveZ, -1, 1)
	in.Pitch = Clamp(in.Pitch, -math.Pi/2, math.Pi/2)
	p.Input = in
	p.Yaw = in.Yaw
	p.Pitch = in.Pitch
	p.Disguised = in.Disguise
	if in.Fire {
		p.firePending = true
	}
	if in.Reload {
		p.reloadPending = true
	}
}

// Forward is the horizontal facing direction.
func (p *Player) Forward() mgl64.Vec3 {
	return mgl64.Vec3{math.Sin(p.Yaw), 0, math.Cos(p.Yaw)}
}

// Aim is the unit view direction including pitch.
func (p *Player) Aim() mgl64.Vec3 {
	cp := math.Cos(p.Pitch)
	return mgl64.Vec3{cp * math.Sin(p.Yaw), math.Sin(p.Pitch), cp * math.Cos(p.Yaw)}
}

// Eye is where shots originate.
func (p *Player) Eye() mgl64.Vec3 {
	return p.Pos.Add(mgl64.Vec3{0, p.cfg.EyeHeight, 0})
}

// Speed is the horizontal speed, used by perception for disguised players.
func (p *Player) Speed() float64 {
	return math.Hypot(p.Vel[0], p.Vel[2])
}

// Update moves the player one tick. Dead players only count down to
// respawn; the caller performs the respawn itself.
func (p *Player) Update(dt float64) {
	if !p.Alive {
		if p.RespawnT > 0 {
			p.RespawnT -= dt
		}
		return
	}

	forward := p.Forward()
	right := mgl64.Vec3{forward[2], 0, -forward[0]}
	move := forward.Mul(p.Input.MoveZ).Add(right.Mul(p.Input.MoveX))
	if l := move.Len(); l > 1 {
		move = move.Mul(1 / l)
	}
	move = move.Mul(p.cfg.MoveSpeed)
	p.Vel[0] = move[0]
	p.Vel[2] = move[2]

	if p.OnGround && p.Input.Jump {
		p.Vel[1] = p.cfg.JumpForce
		p.OnGround = false
	}
	if !p.OnGround {
		p.Vel[1] -= p.cfg.Gravity * dt
	}

	p.Pos = p.Pos.Add(p.Vel.Mul(dt))
	if p.Pos[1] <= 0 {
		p.Pos[1] = 0
		p.Vel[1] = 0
		p.OnGround = true
	}

	p.Gun.Tick(dt)
}

// TakeDamage reduces health and returns true if the player died.
func (p *Player) TakeDamage(amount float64) bool {
	if !p.Alive || amount <= 0 {
		return false
	}
	p.Health -= amount
	if p.Health <= 0 {
		p.Health = 0
		p.Alive = false
		p.RespawnT = p.cfg.RespawnDelay
		return true
	}
	return false
}

// ReadyToRespawn is true once a dead player's timer has run out.
func (p *Player) ReadyToRespawn() bool {
	return !p.Alive && p.RespawnT <= 0
}

// Respawn resets the player at a spawn point.
func (p *Player) Respawn(sp SpawnPoint, index int, weapon WeaponConfig) {
	p.Pos = sp.Pos.Vec()
	p.Yaw = sp.Yaw
	p.Pitch = 0
	p.Vel = mgl64.Vec3{}
	p.Health = p.MaxHealth
	p.Alive = true
	p.OnGround = true
	p.RespawnT = 0
	p.LastSpawn = index
	p.Gun.Reset(weapon)
	p.firePending = false
	p.reloadPending = false
}

func (p *Player) BodyID() ballistics.TargetID { return ballistics.TargetID(p.ID) }

func (p *Player) Hitbox() (mgl64.Vec3, float64) {
	return p.Pos.Add(mgl64.Vec3{0, p.cfg.HitHeight, 0}), p.cfg.HitRadius
}

func (p *Player) BodyLayer() uint32   { return LayerPlayer }
func (p *Player) Resistance() float64 { return p.cfg.Resistance }
func (p *Player) Material() string    { return "flesh" }
func (p *Player) Active() bool        { return p.Alive }

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:       p.ID,
		Name:     p.Name,
		X:        round2(p.Pos[0]),
		Y:        round2(p.Pos[1]),
		Z:        round2(p.Pos[2]),
		Yaw:      round2(p.Yaw),
		Pitch:    round2(p.Pitch),
		HP:       round2(p.Health),
		MaxHP:    p.MaxHealth,
		Ammo:     p.Gun.Magazine,
		Reload:   p.Gun.ReloadCD > 0,
		Alive:    p.Alive,
		Disguise: p.Disguised,
	}
}
