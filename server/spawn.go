package main

import (
	"errors"
	"math/rand"
)

var ErrNoSpawnPoints = errors.New("arena has no spawn points")

// PickSpawn chooses a spawn index. With more than one point it never
// repeats last.
func PickSpawn(rng *rand.Rand, points []SpawnPoint, last int) (int, error) {
	switch n := len(points); {
	case n == 0:
		return -1, ErrNoSpawnPoints
	case n == 1:
		return 0, nil
	default:
		for {
			idx := rng.Intn(n)
			if idx != last {
				return idx, nil
			}
		}
	}
}
