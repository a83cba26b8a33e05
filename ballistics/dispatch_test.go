package ballistics

import (
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

type recordingSink struct {
	mu      sync.Mutex
	events  []string
	damage  map[TargetID]float64
	colors  []TraceColor
	tracer  float64
	impacts []string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{damage: make(map[TargetID]float64)}
}

func (s *recordingSink) ApplyDamage(target TargetID, shooter ShooterID, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "damage:"+string(target)+":"+string(shooter))
	s.damage[target] += amount
}

func (s *recordingSink) PlayImpact(point, normal mgl64.Vec3, surface TargetID, material string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "impact:"+string(surface))
	s.impacts = append(s.impacts, material)
}

func (s *recordingSink) PlayTracer(origin, direction mgl64.Vec3, stopFraction float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "tracer")
	s.tracer = stopFraction
}

func (s *recordingSink) DrawSegment(start, end mgl64.Vec3, color TraceColor, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "segment:"+color.String())
	s.colors = append(s.colors, color)
}

type fixedQuery struct {
	hits    []CandidateHit
	exclude TargetID
}

func (q *fixedQuery) QueryAlongRay(origin, direction mgl64.Vec3, maxRange float64, mask uint32, exclude TargetID) []CandidateHit {
	q.exclude = exclude
	return q.hits
}

func TestDispatchOrderAndRouting(t *testing.T) {
	r := testResolver(t)
	shot := testShot(t)
	res := r.Resolve(shot, []CandidateHit{
		{Distance: 20, Point: along(20), Target: "crate", Resistance: 3, Material: "wood"},
		{Distance: 5, Point: along(5), Target: "wall", DefaultSurface: true, Material: "concrete"},
	})

	sink := newRecordingSink()
	d := &Dispatcher{Damage: sink, Effects: sink, Trace: sink}
	d.Dispatch("p1", shot, res)

	want := []string{
		"impact:wall", "segment:grey",
		"impact:crate", "damage:crate:p1", "segment:yellow",
		"tracer",
	}
	if len(sink.events) != len(want) {
		t.Fatalf("expected %v, got %v", want, sink.events)
	}
	for i := range want {
		if sink.events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], sink.events[i])
		}
	}
	if _, ok := sink.damage["wall"]; ok {
		t.Error("scenery should not reach the damage sink")
	}
	if sink.impacts[1] != "wood" {
		t.Errorf("expected wood impact, got %q", sink.impacts[1])
	}
	if !approx(sink.tracer, 0.4) {
		t.Errorf("expected tracer fraction 0.4, got %f", sink.tracer)
	}
}

func TestDispatchTracerUsesStopDistance(t *testing.T) {
	r := testResolver(t)
	shot := testShot(t)
	res := r.Resolve(shot, []CandidateHit{{Distance: 25, Point: along(25), Target: "tank", Resistance: 100}})

	sink := newRecordingSink()
	d := &Dispatcher{Effects: sink, TracerScale: 50}
	d.Dispatch("p1", shot, res)
	if !approx(sink.tracer, 0.5) {
		t.Errorf("expected 0.5, got %f", sink.tracer)
	}
}

func TestDispatchNilSinks(t *testing.T) {
	r := testResolver(t)
	shot := testShot(t)
	res := r.Resolve(shot, []CandidateHit{{Distance: 1, Target: "a", Resistance: 1}})
	d := &Dispatcher{}
	d.Dispatch("p1", shot, res)
}

func TestFireExcludesShooter(t *testing.T) {
	r := testResolver(t)
	shot := testShot(t)
	q := &fixedQuery{hits: []CandidateHit{{Distance: 3, Target: "a", DefaultSurface: true}}}

	res := r.Fire(q, "me", shot)
	if q.exclude != "me" {
		t.Errorf("expected shooter excluded, got %q", q.exclude)
	}
	if len(res.Hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(res.Hits))
	}
}
