package amoebot

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// occupant records which particle part or object occupies a node.
type occupant struct {
	particle *Particle
	atHead   bool
	object   *Object
}

func (o occupant) ownerID() string {
	if o.particle != nil {
		return string(o.particle.id)
	}
	return string(o.object.id)
}

// System holds the particles and objects of one simulation and drives the
// synchronous rounds. A round runs a movement phase followed by a beep
// phase, and each phase uses the same two-pass discipline: every particle's
// activation callback only stages intentions, and only after all callbacks
// have run are the intentions resolved and applied together. Positions and
// bond state are mutated exclusively between validation and commit; nothing
// is written to any history before the whole round validates, so a round
// either fully commits or fully aborts.
type System struct {
	mu     sync.RWMutex
	logger Logger

	particles map[ParticleID]*Particle
	order     []ParticleID
	objects   map[ObjectID]*Object
	objOrder  []ObjectID
	anchor    ParticleID

	occupancy map[Node]occupant

	round     int
	baseRound int
	marker    int
	scrubbed  bool

	arena            movementArena
	collisionWorkers int

	notifications *NotificationManager

	halted *SimError

	stopCh    chan struct{}
	isRunning bool
}

// NewSystem creates an empty system with a no-op logger.
func NewSystem() *System {
	return NewSystemWithLogger(NewNoOpLogger())
}

// NewSystemWithLogger creates an empty system logging through logger.
func NewSystemWithLogger(logger Logger) *System {
	return &System{
		logger:           logger,
		particles:        make(map[ParticleID]*Particle),
		objects:          make(map[ObjectID]*Object),
		occupancy:        make(map[Node]occupant),
		collisionWorkers: 1,
		stopCh:           make(chan struct{}),
	}
}

// SetNotificationManager attaches a manager that receives a RoundEvent
// after every committed round.
func (s *System) SetNotificationManager(nm *NotificationManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nm
}

// SetCollisionWorkers sets the number of goroutines the collision sweep
// shards pairs across. The sweep result is deterministic regardless.
func (s *System) SetCollisionWorkers(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 {
		n = 1
	}
	s.collisionWorkers = n
}

// Round returns the latest committed round.
func (s *System) Round() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.round
}

// Halted returns the fault that halted the simulation, or nil.
func (s *System) Halted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.halted == nil {
		return nil
	}
	return s.halted
}

// AddParticle adds a contracted particle at pos running alg. The first
// particle added becomes the anchor until SetAnchor overrides it.
func (s *System) AddParticle(id ParticleID, pos Node, compass Compass, alg Algorithm) (*Particle, error) {
	return s.AddExpandedParticle(id, pos, pos, compass, alg)
}

// AddExpandedParticle adds a particle occupying head and tail. Equal head
// and tail create a contracted particle; otherwise they must be adjacent.
func (s *System) AddExpandedParticle(id ParticleID, head, tail Node, compass Compass, alg Algorithm) (*Particle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if head != tail && !head.IsAdjacentTo(tail) {
		return nil, newSimError(ErrKindConfig, s.round, "particle %s: head %s and tail %s are not adjacent", id, head, tail)
	}
	if alg == nil {
		return nil, newSimError(ErrKindConfig, s.round, "particle %s: nil algorithm", id)
	}
	if occ, taken := s.occupancy[head]; taken {
		return nil, newSimError(ErrKindConfig, s.round, "node %s already occupied by %s", head, occ.ownerID())
	}
	if occ, taken := s.occupancy[tail]; taken && head != tail {
		return nil, newSimError(ErrKindConfig, s.round, "node %s already occupied by %s", tail, occ.ownerID())
	}
	if _, dup := s.particles[id]; id != "" && dup {
		return nil, newSimError(ErrKindConfig, s.round, "particle id %s already exists", id)
	}

	p := NewParticle(id, tail, compass, alg, s.round)
	p.head = head
	if err := p.headHistory.RecordValueInRound(s.round, head); err != nil {
		return nil, err
	}
	s.particles[p.id] = p
	s.order = append(s.order, p.id)
	s.occupancy[p.head] = occupant{particle: p, atHead: true}
	if p.IsExpanded() {
		s.occupancy[p.tail] = occupant{particle: p}
	}
	if s.anchor == "" {
		s.anchor = p.id
	}
	return p, nil
}

// AddObject adds a rigid object anchored at pos.
func (s *System) AddObject(id ObjectID, pos Node, offsets []Node) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.objects[id]; id != "" && dup {
		return nil, newSimError(ErrKindConfig, s.round, "object id %s already exists", id)
	}
	o := NewObject(id, pos, offsets, s.round)
	for _, n := range o.Nodes() {
		if occ, taken := s.occupancy[n]; taken {
			return nil, newSimError(ErrKindConfig, s.round, "node %s already occupied by %s", n, occ.ownerID())
		}
	}
	s.objects[o.id] = o
	s.objOrder = append(s.objOrder, o.id)
	for _, n := range o.Nodes() {
		s.occupancy[n] = occupant{object: o}
	}
	return o, nil
}

// SetAnchor designates the particle whose non-moving reference part is the
// fixed global frame for every round.
func (s *System) SetAnchor(id ParticleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.particles[id]; !ok {
		return newSimError(ErrKindConfig, s.round, "anchor particle %s does not exist", id)
	}
	s.anchor = id
	return nil
}

// Anchor returns the current anchor particle id.
func (s *System) Anchor() ParticleID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anchor
}

// Particle returns the particle with the given id.
func (s *System) Particle(id ParticleID) (*Particle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.particles[id]
	return p, ok
}

// Object returns the object with the given id.
func (s *System) Object(id ObjectID) (*Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[id]
	return o, ok
}

func (s *System) occupantAt(n Node) (occupant, bool) {
	occ, ok := s.occupancy[n]
	return occ, ok
}

// Step executes one full round: the movement phase, then the beep phase.
// On any detected fault the round aborts with nothing committed for the
// failing phase and the system halts awaiting operator intervention.
func (s *System) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step()
}

func (s *System) step() error {
	if s.halted != nil {
		return s.halted
	}
	if s.scrubbed {
		return newSimError(ErrKindHistoryMisuse, s.round,
			"cannot step while scrubbed to round %d; call ContinueFromMarker first", s.marker)
	}

	round := s.round + 1

	if simErr := s.movementPhase(round); simErr != nil {
		s.abortStaged()
		s.halted = simErr
		s.logger.Errorf("%v", simErr)
		return simErr
	}
	if simErr := s.beepPhase(round); simErr != nil {
		s.abortStaged()
		s.halted = simErr
		s.logger.Errorf("%v", simErr)
		return simErr
	}

	s.round = round
	s.marker = round
	s.emitRoundEvent(round)
	s.logger.Debugf("round %d committed (%d particles, %d edge movements)", round, len(s.order), len(s.arena.items))
	return nil
}

// movementPhase activates every particle's move callback, resolves the
// staged intentions into edge movements, validates them, and commits.
func (s *System) movementPhase(round int) *SimError {
	for _, id := range s.order {
		if simErr := s.activate(s.particles[id], round, false); simErr != nil {
			return simErr
		}
	}

	res, simErr := s.resolveMovements(round)
	if simErr != nil {
		return simErr
	}

	if simErr := s.sweepCollisions(round); simErr != nil {
		return simErr
	}

	// Commit. Validation is complete: from here on the round cannot fail
	// except for history misuse, which indicates operator error.
	for _, id := range s.order {
		p := s.particles[id]
		move := res.particleMoves[id]
		p.head = move.newHead
		p.tail = move.newTail
		if err := p.commitMovement(round); err != nil {
			return err.(*SimError)
		}
	}
	for _, id := range s.objOrder {
		o := s.objects[id]
		o.pos = o.pos.Add(res.offsets["o:"+string(id)])
		if err := o.commit(round); err != nil {
			return err.(*SimError)
		}
	}
	for _, id := range s.order {
		s.particles[id].clearStaged()
	}
	s.rebuildOccupancy()
	return nil
}

// beepPhase activates every particle's beep callback and commits the
// staged beeps with the same stage-everything-then-apply discipline.
func (s *System) beepPhase(round int) *SimError {
	for _, id := range s.order {
		if simErr := s.activate(s.particles[id], round, true); simErr != nil {
			return simErr
		}
	}
	for _, id := range s.order {
		if err := s.particles[id].commitBeep(round); err != nil {
			return err.(*SimError)
		}
	}
	for _, id := range s.order {
		s.particles[id].clearStaged()
	}
	return nil
}

// activate invokes one particle's callback, converting a panic into an
// algorithm fault attributed to that particle.
func (s *System) activate(p *Particle, round int, beep bool) (simErr *SimError) {
	defer func() {
		if r := recover(); r != nil {
			simErr = &SimError{
				Kind:      ErrKindAlgorithmFault,
				Round:     round,
				Particles: []ParticleID{p.id},
				Message:   fmt.Sprintf("panic in %s: %v", p.algorithm.Name(), r),
			}
		}
	}()
	ctx := &ActivationContext{p: p, sys: s, round: round}
	if beep {
		p.algorithm.ActivateBeep(ctx)
	} else {
		p.algorithm.ActivateMove(ctx)
	}
	return nil
}

// abortStaged drops all staged intentions, leaving committed state intact.
func (s *System) abortStaged() {
	for _, id := range s.order {
		s.particles[id].clearStaged()
	}
	s.arena.reset()
}

func (s *System) rebuildOccupancy() {
	clear(s.occupancy)
	for _, id := range s.order {
		p := s.particles[id]
		s.occupancy[p.head] = occupant{particle: p, atHead: true}
		if p.IsExpanded() {
			s.occupancy[p.tail] = occupant{particle: p}
		}
	}
	for _, id := range s.objOrder {
		o := s.objects[id]
		for _, n := range o.Nodes() {
			s.occupancy[n] = occupant{object: o}
		}
	}
}

func (s *System) emitRoundEvent(round int) {
	if s.notifications == nil {
		return
	}
	event := RoundEvent{
		EventID:   uuid.NewString(),
		Round:     round,
		Timestamp: time.Now().Unix(),
		Particles: s.particleStatesLocked(round),
		Objects:   s.objectStatesLocked(round),
	}
	moved := 0
	for _, em := range s.arena.items {
		if !em.IsStatic() {
			moved++
		}
	}
	event.MovedEdges = moved
	for _, id := range s.order {
		if s.particles[id].beep {
			event.Beeps++
		}
	}
	s.notifications.Enqueue(event)
}

// EdgeMovements returns a copy of the edge movements of the last resolved
// round, for diagnostics and visualization.
func (s *System) EdgeMovements() []EdgeMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EdgeMovement, len(s.arena.items))
	copy(out, s.arena.items)
	return out
}

// ParticleStates returns the committed state of every particle at the
// round the world marker points at.
func (s *System) ParticleStates() []ParticleState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.particleStatesLocked(s.marker)
}

// ParticleStatesAt returns the committed state of every particle visible
// at the given round, enabling history scrubbing without re-simulation.
func (s *System) ParticleStatesAt(round int) []ParticleState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.particleStatesLocked(round)
}

func (s *System) particleStatesLocked(round int) []ParticleState {
	out := make([]ParticleState, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.particles[id].stateAt(round))
	}
	return out
}

// ObjectStates returns the committed state of every object at the marker.
func (s *System) ObjectStates() []ObjectState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objectStatesLocked(s.marker)
}

func (s *System) objectStatesLocked(round int) []ObjectState {
	out := make([]ObjectState, 0, len(s.objOrder))
	for _, id := range s.objOrder {
		out = append(out, s.objects[id].stateAt(round))
	}
	return out
}

// Run starts stepping the system on a ticker in a goroutine until Stop is
// called or a round aborts. It can be called again after stopping.
func (s *System) Run(interval time.Duration) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.isRunning = true
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Step(); err != nil {
					s.Stop()
					return
				}
			case <-s.stopCh:
				s.mu.Lock()
				s.isRunning = false
				s.mu.Unlock()
				return
			}
		}
	}()
}

// Stop stops a running system by closing the stop channel.
func (s *System) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	close(s.stopCh)
	s.isRunning = false
}

// IsRunning reports whether the ticker loop is active.
func (s *System) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
