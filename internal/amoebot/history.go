package amoebot

// History records the evolution of a value over simulation rounds and allows
// the timeline to be stepped backward and forward again without losing the
// ability to resume.
//
// Records are kept as an append-only sequence of (round, value) pairs with
// strictly increasing rounds; a new value is recorded only for rounds in
// which it changed, so the value visible at any round is the latest record
// at or before it. A marker selects the currently visible round. While the
// marker sits in the past the tracker is paused and rejects writes until
// ContinueTracking is called, which discards the overwritten future.
type History[T any] struct {
	rounds   []int
	values   []T
	marker   int // round number the marker points at
	tracking bool
}

// NewHistory creates a tracker whose first record is value at round.
func NewHistory[T any](round int, value T) *History[T] {
	return &History[T]{
		rounds:   []int{round},
		values:   []T{value},
		marker:   round,
		tracking: true,
	}
}

// IsTracking reports whether the tracker accepts new records.
func (h *History[T]) IsTracking() bool { return h.tracking }

// FirstRound returns the earliest recorded round.
func (h *History[T]) FirstRound() int { return h.rounds[0] }

// LastRound returns the latest recorded round.
func (h *History[T]) LastRound() int { return h.rounds[len(h.rounds)-1] }

// MarkedRound returns the round the marker currently points at.
func (h *History[T]) MarkedRound() int { return h.marker }

// RecordValueInRound appends a record for round. Rounds must not decrease;
// recording again in the latest round overwrites that record. Recording is
// rejected while the tracker is paused at a past marker.
func (h *History[T]) RecordValueInRound(round int, value T) error {
	if !h.tracking {
		return newHistoryError("record in round %d rejected: tracker paused at round %d", round, h.marker)
	}
	last := h.LastRound()
	if round < last {
		return newHistoryError("record in round %d rejected: already recorded up to round %d", round, last)
	}
	if round == last {
		h.values[len(h.values)-1] = value
	} else {
		h.rounds = append(h.rounds, round)
		h.values = append(h.values, value)
	}
	h.marker = round
	return nil
}

// GetMarkedValue returns the value visible at the marker.
func (h *History[T]) GetMarkedValue() T {
	return h.values[h.indexAtOrBefore(h.marker)]
}

// GetValueInRound returns the value visible at round, clamped to the
// recorded range.
func (h *History[T]) GetValueInRound(round int) T {
	if round < h.FirstRound() {
		round = h.FirstRound()
	}
	return h.values[h.indexAtOrBefore(round)]
}

// StepBack moves the marker to the previous recorded round and pauses
// tracking. It reports whether the marker moved.
func (h *History[T]) StepBack() bool {
	idx := h.indexAtOrBefore(h.marker)
	if h.marker > h.rounds[idx] {
		// Marker sits between records; snap to the record below it.
		h.marker = h.rounds[idx]
		h.tracking = false
		return true
	}
	if idx == 0 {
		return false
	}
	h.marker = h.rounds[idx-1]
	h.tracking = false
	return true
}

// StepForward moves the marker to the next recorded round. It reports
// whether the marker moved. Tracking is not resumed; use ContinueTracking.
func (h *History[T]) StepForward() bool {
	idx := h.indexAtOrBefore(h.marker)
	if idx == len(h.rounds)-1 {
		return false
	}
	h.marker = h.rounds[idx+1]
	return true
}

// SetMarkerToRound jumps the marker to round, clamped to the recorded range.
// Moving the marker below the latest recorded round pauses tracking.
func (h *History[T]) SetMarkerToRound(round int) {
	if round < h.FirstRound() {
		round = h.FirstRound()
	}
	if round > h.LastRound() {
		round = h.LastRound()
	}
	h.marker = round
	if round < h.LastRound() {
		h.tracking = false
	}
}

// ContinueTracking resumes recording from the marked round. Any records
// later than the marker belong to a future the rewind has overwritten and
// are discarded.
func (h *History[T]) ContinueTracking() {
	h.truncateAfterMarker()
	h.tracking = true
}

// CutOffAtMarker truncates all records after the marker without changing
// the tracking state.
func (h *History[T]) CutOffAtMarker() {
	h.truncateAfterMarker()
}

// ShiftTimescale re-indexes every recorded round by offset. Used when the
// whole simulation's round counter is rebased.
func (h *History[T]) ShiftTimescale(offset int) {
	for i := range h.rounds {
		h.rounds[i] += offset
	}
	h.marker += offset
}

func (h *History[T]) truncateAfterMarker() {
	idx := h.indexAtOrBefore(h.marker)
	h.rounds = h.rounds[:idx+1]
	h.values = h.values[:idx+1]
}

// indexAtOrBefore returns the index of the latest record at or before round.
// The caller guarantees round >= FirstRound().
func (h *History[T]) indexAtOrBefore(round int) int {
	lo, hi := 0, len(h.rounds)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if h.rounds[mid] <= round {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// recordIfChanged appends a record only when the value differs from the one
// already visible at round, keeping histories sparse across quiet rounds.
func recordIfChanged[T comparable](h *History[T], round int, value T) error {
	if h.IsTracking() && h.GetValueInRound(round) == value {
		return nil
	}
	return h.RecordValueInRound(round, value)
}

// historyRecord is the serialized form of one (round, value) pair.
type historyRecord[T any] struct {
	Round int `json:"round"`
	Value T   `json:"value"`
}

// Records returns the full recorded sequence, for persistence.
func (h *History[T]) Records() []historyRecord[T] {
	out := make([]historyRecord[T], len(h.rounds))
	for i := range h.rounds {
		out[i] = historyRecord[T]{Round: h.rounds[i], Value: h.values[i]}
	}
	return out
}

// historyFromRecords rebuilds a tracker from a recorded sequence. The
// sequence must be non-empty with strictly increasing rounds.
func historyFromRecords[T any](records []historyRecord[T]) (*History[T], error) {
	if len(records) == 0 {
		return nil, newHistoryError("cannot rebuild history from empty record sequence")
	}
	h := &History[T]{
		rounds:   make([]int, len(records)),
		values:   make([]T, len(records)),
		tracking: true,
	}
	for i, r := range records {
		if i > 0 && r.Round <= h.rounds[i-1] {
			return nil, newHistoryError("record rounds must be strictly increasing: %d after %d", r.Round, h.rounds[i-1])
		}
		h.rounds[i] = r.Round
		h.values[i] = r.Value
	}
	h.marker = h.LastRound()
	return h, nil
}
