package amoebot

import (
	"sort"

	"golang.org/x/sync/errgroup"
)

// sweepCollisions tests every pair of edge movements in the round's arena.
// The pair space is sharded across workers; each shard keeps only its
// lowest-indexed hit so the reported collision does not depend on
// scheduling.
func (s *System) sweepCollisions(round int) *SimError {
	edges := s.arena.items
	n := len(edges)
	if n < 2 {
		return nil
	}
	workers := s.collisionWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	type hit struct {
		i, j int
		col  Collision
	}
	found := make([]*hit, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			var best *hit
			for i := w; i < n; i += workers {
				for j := i + 1; j < n; j++ {
					if best != nil && (i > best.i || (i == best.i && j >= best.j)) {
						break
					}
					if col, ok := DetectCollision(edges[i], edges[j]); ok {
						best = &hit{i: i, j: j, col: col}
						break
					}
				}
			}
			found[w] = best
			return nil
		})
	}
	_ = g.Wait()

	var best *hit
	for _, h := range found {
		if h == nil {
			continue
		}
		if best == nil || h.i < best.i || (h.i == best.i && h.j < best.j) {
			best = h
		}
	}
	if best == nil {
		return nil
	}

	owners := make(map[string]struct{})
	for _, o := range best.col.A.Owners {
		owners[o] = struct{}{}
	}
	for _, o := range best.col.B.Owners {
		owners[o] = struct{}{}
	}
	var ids []ParticleID
	for o := range owners {
		if _, ok := s.particles[ParticleID(o)]; ok {
			ids = append(ids, ParticleID(o))
		}
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	return &SimError{
		Kind:      ErrKindCollision,
		Round:     round,
		Particles: ids,
		Edges:     []EdgeMovement{best.col.A, best.col.B},
		Message:   "edge movements " + best.col.A.String() + " and " + best.col.B.String() + " collide",
	}
}
