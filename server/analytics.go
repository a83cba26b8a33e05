package main

import (
	"log/slog"
	"sync"
	"time"
)

const (
	telemetryBuffer     = 1024
	telemetryBatchSize  = 50
	telemetryFlushEvery = 5 * time.Second
)

// Recorder receives persistent combat events from a running game.
// Account ids of 0 are guests and are ignored.
type Recorder interface {
	RecordShot(row ShotRow)
	RecordKill(killer, victim int64)
}

type killRow struct {
	killer int64
	victim int64
}

// Telemetry batches shot records and writes them to the database from a
// background goroutine so the game loop never blocks on disk.
type Telemetry struct {
	db     *DB
	shots  chan ShotRow
	kills  chan killRow
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	logger *slog.Logger

	mu       sync.RWMutex
	peers    int
	sessions int
	dropped  int
}

// NewTelemetry creates and starts the background writer
func NewTelemetry(db *DB, logger *slog.Logger) *Telemetry {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Telemetry{
		db:     db,
		shots:  make(chan ShotRow, telemetryBuffer),
		kills:  make(chan killRow, telemetryBuffer),
		stop:   make(chan struct{}),
		logger: logger.With("component", "telemetry"),
	}
	t.wg.Add(1)
	go t.writer()
	return t
}

// RecordShot enqueues a shot without blocking
func (t *Telemetry) RecordShot(row ShotRow) {
	if row.PlayerID <= 0 {
		return
	}
	if row.At.IsZero() {
		row.At = time.Now().UTC()
	}
	select {
	case t.shots <- row:
	default:
		t.mu.Lock()
		t.dropped++
		t.mu.Unlock()
	}
}

// RecordKill enqueues a kill/death pair without blocking
func (t *Telemetry) RecordKill(killer, victim int64) {
	if killer <= 0 && victim <= 0 {
		return
	}
	select {
	case t.kills <- killRow{killer: killer, victim: victim}:
	default:
		t.mu.Lock()
		t.dropped++
		t.mu.Unlock()
	}
}

// SetLive updates the live peer and session gauges
func (t *Telemetry) SetLive(peers, sessions int) {
	t.mu.Lock()
	t.peers = peers
	t.sessions = sessions
	t.mu.Unlock()
}

// Live returns connected peers, active sessions and dropped records
func (t *Telemetry) Live() (peers, sessions, dropped int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.peers, t.sessions, t.dropped
}

// Stop drains pending records and waits for the writer to exit
func (t *Telemetry) Stop() {
	t.once.Do(func() { close(t.stop) })
	t.wg.Wait()
}

func (t *Telemetry) writer() {
	defer t.wg.Done()

	batch := make([]ShotRow, 0, telemetryBatchSize)
	ticker := time.NewTicker(telemetryFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case row := <-t.shots:
			batch = append(batch, row)
			if len(batch) >= telemetryBatchSize {
				t.flush(batch)
				batch = batch[:0]
			}
		case k := <-t.kills:
			t.writeKill(k)
		case <-ticker.C:
			if len(batch) > 0 {
				t.flush(batch)
				batch = batch[:0]
			}
		case <-t.stop:
			for {
				select {
				case row := <-t.shots:
					batch = append(batch, row)
				case k := <-t.kills:
					t.writeKill(k)
				default:
					t.flush(batch)
					return
				}
			}
		}
	}
}

func (t *Telemetry) flush(batch []ShotRow) {
	if t.db == nil || len(batch) == 0 {
		return
	}
	if err := t.db.RecordShots(batch); err != nil {
		t.logger.Error("flush shots", "count", len(batch), "err", err)
		return
	}
	t.logger.Debug("flushed shots", "count", len(batch))
}

func (t *Telemetry) writeKill(k killRow) {
	if t.db == nil {
		return
	}
	if k.killer > 0 {
		if err := t.db.AddKill(k.killer); err != nil {
			t.logger.Error("record kill", "player", k.killer, "err", err)
		}
	}
	if k.victim > 0 {
		if err := t.db.AddDeath(k.victim); err != nil {
			t.logger.Error("record death", "player", k.victim, "err", err)
		}
	}
}
