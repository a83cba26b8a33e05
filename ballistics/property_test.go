package ballistics

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"pgregory.net/rapid"
)

func drawShot(t *rapid.T) Shot {
	return Shot{
		Direction:   mgl64.Vec3{0, 0, 1},
		Penetration: rapid.Float64Range(0.1, 50).Draw(t, "penetration"),
		Damage:      rapid.Float64Range(0, 200).Draw(t, "damage"),
		MaxRange:    rapid.Float64Range(1, 500).Draw(t, "maxRange"),
	}
}

func drawHits(t *rapid.T) []CandidateHit {
	n := rapid.IntRange(0, 12).Draw(t, "n")
	hits := make([]CandidateHit, n)
	for i := range hits {
		d := rapid.Float64Range(0, 400).Draw(t, fmt.Sprintf("dist%d", i))
		hits[i] = CandidateHit{
			Distance:       d,
			Point:          along(d),
			Target:         TargetID(fmt.Sprintf("t%d", i)),
			DefaultSurface: rapid.Bool().Draw(t, fmt.Sprintf("scenery%d", i)),
			Resistance:     rapid.Float64Range(0, 30).Draw(t, fmt.Sprintf("res%d", i)),
		}
	}
	return hits
}

func TestPropertyHitsInDistanceOrder(t *testing.T) {
	r, _ := NewResolver(DefaultConfig())
	rapid.Check(t, func(t *rapid.T) {
		res := r.Resolve(drawShot(t), drawHits(t))
		for i := 1; i < len(res.Hits); i++ {
			if res.Hits[i].Distance < res.Hits[i-1].Distance {
				t.Fatalf("hit %d at %f before hit %d at %f", i, res.Hits[i].Distance, i-1, res.Hits[i-1].Distance)
			}
		}
	})
}

func TestPropertyPenetrationNeverIncreases(t *testing.T) {
	r, _ := NewResolver(DefaultConfig())
	rapid.Check(t, func(t *rapid.T) {
		shot := drawShot(t)
		hits := drawHits(t)
		slices.SortStableFunc(hits, func(a, b CandidateHit) int { return cmp.Compare(a.Distance, b.Distance) })

		prev := shot.Penetration
		for i := 0; i <= len(hits); i++ {
			rem := r.Resolve(shot, hits[:i]).Remaining
			if rem > prev {
				t.Fatalf("penetration rose from %f to %f after %d hits", prev, rem, i)
			}
			prev = rem
		}
	})
}

func TestPropertyDamageBounds(t *testing.T) {
	r, _ := NewResolver(DefaultConfig())
	rapid.Check(t, func(t *rapid.T) {
		shot := drawShot(t)
		for _, h := range r.Resolve(shot, drawHits(t)).Hits {
			if h.Damage < 0 || h.Damage > shot.Damage {
				t.Fatalf("damage %f outside [0, %f]", h.Damage, shot.Damage)
			}
			if h.DefaultSurface && h.Damage != 0 {
				t.Fatalf("scenery took %f damage", h.Damage)
			}
		}
	})
}

func TestPropertySingleTrailingStop(t *testing.T) {
	r, _ := NewResolver(DefaultConfig())
	rapid.Check(t, func(t *rapid.T) {
		shot := drawShot(t)
		res := r.Resolve(shot, drawHits(t))
		for i, h := range res.Hits {
			if h.Stopped && i != len(res.Hits)-1 {
				t.Fatalf("stop at %d of %d", i, len(res.Hits))
			}
		}
		if res.Stopped() {
			if res.StoppedDistance != res.Hits[len(res.Hits)-1].Distance {
				t.Fatalf("stopped distance %f does not match last hit", res.StoppedDistance)
			}
		} else if res.StoppedDistance != shot.MaxRange {
			t.Fatalf("unstopped shot ended at %f, want %f", res.StoppedDistance, shot.MaxRange)
		}
	})
}

func TestPropertyFalloffMonotonic(t *testing.T) {
	r, _ := NewResolver(DefaultConfig())
	rapid.Check(t, func(t *rapid.T) {
		shot := drawShot(t)
		d1 := rapid.Float64Range(0, 300).Draw(t, "d1")
		d2 := rapid.Float64Range(d1, 600).Draw(t, "d2")
		res := rapid.Float64Range(0, 30).Draw(t, "res")

		if DistanceFalloff(d1, DefaultFalloffDistance) < DistanceFalloff(d2, DefaultFalloffDistance) {
			t.Fatalf("falloff grew between %f and %f", d1, d2)
		}
		near := r.Resolve(shot, []CandidateHit{{Distance: d1, Target: "x", Resistance: res}})
		far := r.Resolve(shot, []CandidateHit{{Distance: d2, Target: "x", Resistance: res}})
		if near.Hits[0].Damage < far.Hits[0].Damage {
			t.Fatalf("damage at %f (%f) below damage at %f (%f)", d1, near.Hits[0].Damage, d2, far.Hits[0].Damage)
		}
	})
}

func TestPropertyResolveIsPure(t *testing.T) {
	r, _ := NewResolver(DefaultConfig())
	rapid.Check(t, func(t *rapid.T) {
		shot := drawShot(t)
		hits := drawHits(t)
		a := r.Resolve(shot, hits)
		b := r.Resolve(shot, hits)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("results differ:\n%+v\n%+v", a, b)
		}
	})
}
