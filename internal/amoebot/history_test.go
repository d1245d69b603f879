package amoebot

import (
	"testing"
)

func TestHistoryRecordsOnlyChanges(t *testing.T) {
	h := NewHistory(0, 10)

	if err := recordIfChanged(h, 1, 10); err != nil {
		t.Fatalf("recordIfChanged: %v", err)
	}
	if err := recordIfChanged(h, 2, 20); err != nil {
		t.Fatalf("recordIfChanged: %v", err)
	}
	if err := recordIfChanged(h, 5, 20); err != nil {
		t.Fatalf("recordIfChanged: %v", err)
	}

	records := h.Records()
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if h.GetValueInRound(1) != 10 {
		t.Errorf("Round 1 value = %d, want 10", h.GetValueInRound(1))
	}
	if h.GetValueInRound(4) != 20 {
		t.Errorf("Round 4 value = %d, want 20", h.GetValueInRound(4))
	}
}

func TestHistoryRejectsDecreasingRounds(t *testing.T) {
	h := NewHistory(5, "a")
	if err := h.RecordValueInRound(4, "b"); err == nil {
		t.Error("Expected error recording below the latest round")
	}
	// Same-round recording overwrites instead.
	if err := h.RecordValueInRound(5, "b"); err != nil {
		t.Fatalf("Same-round record: %v", err)
	}
	if h.GetMarkedValue() != "b" {
		t.Errorf("Marked value = %q, want %q", h.GetMarkedValue(), "b")
	}
}

func TestHistoryStepBackAndForward(t *testing.T) {
	h := NewHistory(0, 1)
	_ = h.RecordValueInRound(3, 2)
	_ = h.RecordValueInRound(7, 3)

	if !h.StepBack() {
		t.Fatal("StepBack from the last record should move")
	}
	if h.MarkedRound() != 3 || h.GetMarkedValue() != 2 {
		t.Errorf("After StepBack: marker=%d value=%d", h.MarkedRound(), h.GetMarkedValue())
	}
	if h.IsTracking() {
		t.Error("Stepping back must pause tracking")
	}
	if err := h.RecordValueInRound(8, 4); err == nil {
		t.Error("Paused tracker must reject records")
	}

	if !h.StepForward() {
		t.Fatal("StepForward should move back to the last record")
	}
	if h.MarkedRound() != 7 {
		t.Errorf("After StepForward: marker=%d, want 7", h.MarkedRound())
	}

	if h.StepForward() {
		t.Error("StepForward past the last record should not move")
	}
}

func TestHistoryStepBackSnapsBetweenRecords(t *testing.T) {
	h := NewHistory(0, 1)
	_ = h.RecordValueInRound(10, 2)
	h.SetMarkerToRound(6)

	if h.MarkedRound() != 6 {
		t.Fatalf("Marker = %d, want 6", h.MarkedRound())
	}
	if !h.StepBack() {
		t.Fatal("StepBack between records should snap down")
	}
	if h.MarkedRound() != 0 {
		t.Errorf("Marker = %d, want 0", h.MarkedRound())
	}
}

func TestHistoryContinueTrackingDiscardsFuture(t *testing.T) {
	h := NewHistory(0, 1)
	_ = h.RecordValueInRound(2, 2)
	_ = h.RecordValueInRound(4, 3)

	h.SetMarkerToRound(2)
	h.ContinueTracking()

	if !h.IsTracking() {
		t.Fatal("ContinueTracking must resume")
	}
	if h.LastRound() != 2 {
		t.Errorf("LastRound = %d, want 2 after truncation", h.LastRound())
	}
	if err := h.RecordValueInRound(3, 9); err != nil {
		t.Fatalf("Record after resume: %v", err)
	}
	if h.GetValueInRound(3) != 9 {
		t.Errorf("Branched value = %d, want 9", h.GetValueInRound(3))
	}
}

func TestHistoryShiftTimescale(t *testing.T) {
	h := NewHistory(0, "a")
	_ = h.RecordValueInRound(5, "b")

	h.ShiftTimescale(100)

	if h.FirstRound() != 100 || h.LastRound() != 105 || h.MarkedRound() != 105 {
		t.Errorf("After shift: first=%d last=%d marker=%d", h.FirstRound(), h.LastRound(), h.MarkedRound())
	}
	if h.GetValueInRound(104) != "a" {
		t.Errorf("Value at 104 = %q, want %q", h.GetValueInRound(104), "a")
	}
}

func TestHistoryFromRecordsRoundTrip(t *testing.T) {
	h := NewHistory(1, 10)
	_ = h.RecordValueInRound(3, 20)
	_ = h.RecordValueInRound(6, 30)

	rebuilt, err := historyFromRecords(h.Records())
	if err != nil {
		t.Fatalf("historyFromRecords: %v", err)
	}
	for round := 1; round <= 6; round++ {
		if rebuilt.GetValueInRound(round) != h.GetValueInRound(round) {
			t.Errorf("Round %d: rebuilt=%d original=%d", round, rebuilt.GetValueInRound(round), h.GetValueInRound(round))
		}
	}

	if _, err := historyFromRecords([]historyRecord[int]{}); err == nil {
		t.Error("Empty record sequence must be rejected")
	}
	if _, err := historyFromRecords([]historyRecord[int]{{Round: 2, Value: 1}, {Round: 2, Value: 2}}); err == nil {
		t.Error("Non-increasing rounds must be rejected")
	}
}
