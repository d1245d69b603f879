package amoebot

// tracker is the type-independent surface of History[T], letting the
// system drive every recorded quantity through one timeline.
type tracker interface {
	FirstRound() int
	LastRound() int
	MarkedRound() int
	SetMarkerToRound(round int)
	ContinueTracking()
	CutOffAtMarker()
	ShiftTimescale(offset int)
}

func (s *System) trackers() []tracker {
	out := make([]tracker, 0, 4*len(s.order)+len(s.objOrder))
	for _, id := range s.order {
		p := s.particles[id]
		out = append(out, p.headHistory, p.tailHistory, p.colorHistory, p.beepHistory)
	}
	for _, id := range s.objOrder {
		out = append(out, s.objects[id].posHistory)
	}
	return out
}

// MarkedRound returns the round the world marker points at. It equals the
// latest committed round unless the timeline has been scrubbed back.
func (s *System) MarkedRound() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marker
}

// IsScrubbed reports whether the marker sits before the latest committed
// round. A scrubbed system rejects Step until ContinueFromMarker.
func (s *System) IsScrubbed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scrubbed
}

// StepBack moves the world marker one round into the past. It reports
// whether the marker moved.
func (s *System) StepBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marker <= s.baseRound {
		return false
	}
	s.setMarker(s.marker - 1)
	return true
}

// StepForward moves the world marker one round toward the present. When
// the marker reaches the latest committed round the trackers resume and
// Step is accepted again.
func (s *System) StepForward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marker >= s.round {
		return false
	}
	s.setMarker(s.marker + 1)
	return true
}

// JumpToRound moves the world marker to round, clamped to the recorded
// range.
func (s *System) JumpToRound(round int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if round < s.baseRound {
		round = s.baseRound
	}
	if round > s.round {
		round = s.round
	}
	s.setMarker(round)
}

func (s *System) setMarker(round int) {
	s.marker = round
	for _, t := range s.trackers() {
		t.SetMarkerToRound(round)
	}
	if round >= s.round {
		for _, t := range s.trackers() {
			t.ContinueTracking()
		}
		s.scrubbed = false
	} else {
		s.scrubbed = true
	}
}

// ContinueFromMarker makes the marked round the new present: every record
// after the marker is discarded, the live particle and object state is
// restored from the histories, and stepping resumes from there. A halted
// system is revived if the fault lies in the discarded future.
func (s *System) ContinueFromMarker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scrubbed {
		return
	}
	for _, t := range s.trackers() {
		t.ContinueTracking()
	}
	s.restoreFromHistories(s.marker)
	s.round = s.marker
	s.scrubbed = false
	s.halted = nil
	s.logger.Infof("timeline resumed from round %d; later records discarded", s.round)
}

// CutOffAtMarker discards every record after the marker on all trackers
// without resuming.
func (s *System) CutOffAtMarker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trackers() {
		t.CutOffAtMarker()
	}
}

// ShiftTimescale rebases every recorded round, the round counter, and the
// marker by offset.
func (s *System) ShiftTimescale(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trackers() {
		t.ShiftTimescale(offset)
	}
	s.round += offset
	s.baseRound += offset
	s.marker += offset
}

// restoreFromHistories resets the live fields of every particle and object
// to their recorded state at round and rebuilds the occupancy map.
func (s *System) restoreFromHistories(round int) {
	for _, id := range s.order {
		p := s.particles[id]
		p.head = p.headHistory.GetValueInRound(round)
		p.tail = p.tailHistory.GetValueInRound(round)
		p.color = p.colorHistory.GetValueInRound(round)
		p.beep = p.beepHistory.GetValueInRound(round)
		p.clearStaged()
	}
	for _, id := range s.objOrder {
		o := s.objects[id]
		o.pos = o.posHistory.GetValueInRound(round)
	}
	s.rebuildOccupancy()
}
