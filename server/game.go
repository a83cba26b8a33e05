package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"

	"fps-server/ballistics"
)

var (
	ErrSessionFull     = errors.New("session is full")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrShooterMismatch = errors.New("shooter does not match connection")
	ErrPlayerDead      = errors.New("player is dead")
	ErrBadFire         = errors.New("malformed fire request")
	ErrWeaponNotReady  = errors.New("weapon not ready")
)

// Broadcaster sends messages to one connected client
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game holds the state for one session and runs its tick loop.
type Game struct {
	mu         sync.RWMutex
	id         string
	cfg        *Config
	logger     *slog.Logger
	world      *World
	resolver   *ballistics.Resolver
	trace      ballistics.TraceSink
	players    map[string]*Player
	enemies    []*Enemy
	clients    map[string]Broadcaster
	scores     *Scoreboard
	recorder   Recorder
	rng        *rand.Rand
	walkPoints []mgl64.Vec3
	tick       uint64
	running    bool
	stop       chan struct{}
}

// NewGame builds a session from cfg. recorder may be nil.
func NewGame(id string, cfg *Config, recorder Recorder, logger *slog.Logger) (*Game, error) {
	resolver, err := ballistics.NewResolver(cfg.Ballistics.Config)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", id)

	g := &Game{
		id:       id,
		cfg:      cfg,
		logger:   logger,
		world:    NewWorld(cfg.Arena),
		resolver: resolver,
		trace:    traceLogger{logger: logger},
		players:  make(map[string]*Player),
		clients:  make(map[string]Broadcaster),
		scores:   NewScoreboard(),
		recorder: recorder,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		stop:     make(chan struct{}),
	}
	for _, wp := range cfg.Arena.WalkPoints {
		g.walkPoints = append(g.walkPoints, wp.Vec())
	}
	for _, def := range cfg.Arena.Enemies {
		e := NewEnemy(def, &cfg.Enemy)
		g.enemies = append(g.enemies, e)
		g.world.AddBody(e)
	}
	return g, nil
}

// Run ticks the game at the configured rate until ctx is done or Stop is called.
func (g *Game) Run(ctx context.Context) {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(time.Second / time.Duration(g.cfg.TickRate))
	defer ticker.Stop()
	dt := 1.0 / float64(g.cfg.TickRate)

	for {
		select {
		case <-ticker.C:
			g.Step(dt)
		case <-ctx.Done():
			g.Stop()
			return
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		close(g.stop)
	}
}

// AddPlayer places a new player at a spawn point. authID is 0 for guests.
func (g *Game) AddPlayer(name string, authID int64) (*Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) >= g.cfg.MaxPlayers {
		return nil, ErrSessionFull
	}

	p := NewPlayer(GenerateID(4), name, g.cfg)
	p.AuthID = authID
	if idx, err := PickSpawn(g.rng, g.cfg.Arena.SpawnPoints, -1); err != nil {
		g.logger.Error("no spawn point for new player", "player", p.ID, "err", err)
	} else {
		p.Respawn(g.cfg.Arena.SpawnPoints[idx], idx, g.cfg.Weapon)
	}

	g.players[p.ID] = p
	g.world.AddBody(p)
	g.scores.Track(p.ID, p.Name)
	g.logger.Info("player joined", "player", p.ID, "name", name)
	return p, nil
}

// RemovePlayer removes a player from the game
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.players[id]; !ok {
		return
	}
	delete(g.players, id)
	delete(g.clients, id)
	g.world.RemoveBody(ballistics.TargetID(id))
	g.scores.Forget(id)
	if len(g.players) == 0 {
		g.world.RestoreProps()
	}
	g.logger.Info("player left", "player", id)
}

// SetClient associates a broadcaster with a player
func (g *Game) SetClient(playerID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[playerID] = client
}

// HandleInput stores the latest controls for a player. Non-finite values
// are dropped.
func (g *Game) HandleInput(playerID string, in PlayerInput) {
	if !finite(in.MoveX, in.MoveZ, in.Yaw, in.Pitch) {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.players[playerID]; ok {
		p.ApplyInput(in)
	}
}

// HandleFire resolves a client-described shot. The shooter must be the
// sending player; penetration and damage are capped at the weapon's and
// an origin too far from the player's eye is replaced by the eye.
func (g *Game) HandleFire(playerID string, msg FireMsg) (ballistics.Result, error) {
	if msg.ShooterID != playerID {
		return ballistics.Result{}, ErrShooterMismatch
	}
	o, d := msg.Origin, msg.Direction
	if !finite(o[0], o[1], o[2], d[0], d[1], d[2], msg.Penetration, msg.Damage) {
		return ballistics.Result{}, ErrBadFire
	}
	dir := mgl64.Vec3{d[0], d[1], d[2]}
	if dir.Len() == 0 {
		return ballistics.Result{}, ErrBadFire
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok {
		return ballistics.Result{}, ErrUnknownPlayer
	}
	if !p.Alive {
		return ballistics.Result{}, ErrPlayerDead
	}

	w := g.cfg.Weapon
	origin := mgl64.Vec3{o[0], o[1], o[2]}
	if origin.Sub(p.Eye()).Len() > w.MaxOriginDrift {
		origin = p.Eye()
	}
	pen := msg.Penetration
	if pen <= 0 || pen > w.Penetration {
		pen = w.Penetration
	}
	dmg := msg.Damage
	if dmg <= 0 || dmg > w.Damage {
		dmg = w.Damage
	}

	if !p.Gun.TryFire(w) {
		return ballistics.Result{}, ErrWeaponNotReady
	}
	return g.fire(p, origin, dir, pen, dmg), nil
}

// PlayerCount returns the number of players
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.players)
}

// Scores returns the current scoreboard
func (g *Game) Scores() []ScoreState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scores.Snapshot()
}

// Step advances the simulation by dt seconds.
func (g *Game) Step(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.update(dt)
}

func (g *Game) update(dt float64) {
	g.tick++
	w := g.cfg.Weapon

	for _, p := range g.players {
		p.Update(dt)
		if !p.Alive {
			if p.ReadyToRespawn() {
				g.respawn(p)
			}
			continue
		}

		if p.reloadPending {
			p.reloadPending = false
			p.Gun.Reload(w)
		}
		if p.firePending {
			p.firePending = false
			if p.Gun.TryFire(w) {
				g.fire(p, p.Eye(), p.Aim(), w.Penetration, w.Damage)
			}
		}
		p.Gun.AutoReload(w)
	}

	g.updateEnemies(dt)

	every := uint64(max(1, g.cfg.TickRate/g.cfg.BroadcastRate))
	if g.tick%every == 0 {
		g.broadcastState()
	}
}

// respawn moves a dead player to a spawn point other than their last one.
// Without spawn points the player comes back where they fell.
func (g *Game) respawn(p *Player) {
	points := g.cfg.Arena.SpawnPoints
	idx, err := PickSpawn(g.rng, points, p.LastSpawn)
	if err != nil {
		g.logger.Error("respawn failed", "player", p.ID, "err", err)
		p.Respawn(SpawnPoint{Pos: Point{X: p.Pos[0], Y: p.Pos[1], Z: p.Pos[2]}, Yaw: p.Yaw}, p.LastSpawn, g.cfg.Weapon)
		return
	}
	p.Respawn(points[idx], idx, g.cfg.Weapon)
	g.logger.Debug("player respawned", "player", p.ID, "spawn", idx)
}

// fire resolves one shot against the world and dispatches its effects.
func (g *Game) fire(p *Player, origin, dir mgl64.Vec3, pen, dmg float64) ballistics.Result {
	w := g.cfg.Weapon
	shot, err := ballistics.NewShot(origin, dir, pen, dmg, w.MaxRange, w.CollisionMask)
	if err != nil {
		g.logger.Warn("rejected shot", "player", p.ID, "err", err)
		return ballistics.Result{}
	}

	res := g.resolver.Fire(g.world, ballistics.ShooterID(p.ID), shot)
	fx := newShotEffects(g, p.ID)
	d := ballistics.Dispatcher{
		Damage:        fx,
		Effects:       fx,
		Trace:         g.trace,
		TraceDuration: time.Duration(g.cfg.Ballistics.TraceDuration * float64(time.Second)),
		TracerScale:   g.cfg.Ballistics.TracerScale,
	}
	d.Dispatch(ballistics.ShooterID(p.ID), shot, res)
	g.broadcastMsg(Envelope{T: MsgShot, Data: fx.event})

	if g.recorder != nil && p.AuthID > 0 {
		g.recorder.RecordShot(ShotRow{
			PlayerID:     p.AuthID,
			SessionID:    g.id,
			Hits:         fx.hits,
			Damage:       fx.damage,
			Stopped:      res.Stopped(),
			StopDistance: res.StoppedDistance,
			At:           time.Now().UTC(),
		})
	}
	return res
}

func (g *Game) updateEnemies(dt float64) {
	sightings := make([]Sighting, 0, len(g.players))
	for _, p := range g.players {
		if p.Alive {
			sightings = append(sightings, Sighting{ID: p.ID, Pos: p.Pos, Speed: p.Speed(), Disguised: p.Disguised})
		}
	}

	lift := mgl64.Vec3{0, g.cfg.Enemy.HitHeight, 0}
	for _, e := range g.enemies {
		eye := e.Pos.Add(lift)
		visible := func(pos mgl64.Vec3) bool {
			return g.world.LineOfSight(eye, pos.Add(lift))
		}
		victimID := e.Update(dt, sightings, g.walkPoints, visible)
		if victimID == "" {
			continue
		}
		if p, ok := g.players[victimID]; ok && p.Alive {
			g.enemyShoots(e, p)
		}
	}
}

// enemyShoots applies the enemy's fixed damage directly and tells clients
// where to draw the shot.
func (g *Game) enemyShoots(e *Enemy, p *Player) {
	from := e.Pos.Add(mgl64.Vec3{0, g.cfg.Enemy.HitHeight, 0})
	to, _ := p.Hitbox()
	dist := to.Sub(from).Len()
	dir := to.Sub(from)
	if dist > 0 {
		dir = dir.Mul(1 / dist)
	}
	amount := g.cfg.Enemy.Damage
	scale := g.cfg.Ballistics.TracerScale

	g.broadcastMsg(Envelope{T: MsgShot, Data: ShotEvent{
		Shooter:      e.ID,
		Origin:       vecArray(from),
		Direction:    vecArray(dir),
		StopFraction: round2(dist / scale),
		Impacts: []ImpactEvent{{
			Point:    vecArray(to),
			Normal:   vecArray(dir.Mul(-1)),
			Surface:  p.ID,
			Material: p.Material(),
			Damage:   amount,
		}},
	}})
	if p.TakeDamage(amount) {
		g.onKill(e.ID, p.ID, p.Name, p.AuthID)
	}
}

// broadcastState sends the state snapshot as one msgpack frame shared by
// every client.
func (g *Game) broadcastState() {
	if len(g.clients) == 0 {
		return
	}
	data, err := msgpack.Marshal(g.snapshot())
	if err != nil {
		g.logger.Error("encode state", "err", err)
		return
	}
	for _, c := range g.clients {
		c.SendBinary(data)
	}
}

func (g *Game) snapshot() GameState {
	state := GameState{
		Players: make([]PlayerState, 0, len(g.players)),
		Enemies: make([]EnemyState, 0, len(g.enemies)),
		Props:   make([]PropState, 0, len(g.world.Props())),
		Scores:  g.scores.Snapshot(),
		Tick:    g.tick,
	}
	for _, p := range g.players {
		state.Players = append(state.Players, p.ToState())
	}
	for _, e := range g.enemies {
		state.Enemies = append(state.Enemies, e.ToState())
	}
	for _, pr := range g.world.Props() {
		state.Props = append(state.Props, PropState{ID: string(pr.ID), HP: round2(pr.Health), Destroyed: pr.Destroyed})
	}
	return state
}

// broadcastMsg sends a message to all clients in the session
func (g *Game) broadcastMsg(msg Envelope) {
	for _, c := range g.clients {
		c.SendJSON(msg)
	}
}
