package metrics

import (
	"errors"
	"testing"
	"time"
)

// captureBackend records calls for assertions.
type captureBackend struct {
	counters   map[string]float64
	histograms map[string][]float64
	labels     map[string]Labels
	flushed    int
}

func newCapture() *captureBackend {
	return &captureBackend{
		counters:   map[string]float64{},
		histograms: map[string][]float64{},
		labels:     map[string]Labels{},
	}
}

func (c *captureBackend) IncCounter(name string, delta float64, labels Labels) {
	c.counters[name] += delta
	c.labels[name] = labels
}

func (c *captureBackend) ObserveHistogram(name string, value float64, labels Labels) {
	c.histograms[name] = append(c.histograms[name], value)
	c.labels[name] = labels
}

func (c *captureBackend) Flush() error {
	c.flushed++
	return nil
}

func TestRecordStepLabelsStatus(t *testing.T) {
	cap := newCapture()
	SetBackend(cap)
	defer SetBackend(nopBackend{})

	RecordStep("job1", "join", nil, 2*time.Second)
	if cap.counters["insights_step_total"] != 1 {
		t.Fatalf("step counter = %v", cap.counters["insights_step_total"])
	}
	if got := cap.labels["insights_step_total"]["status"]; got != "success" {
		t.Fatalf("status = %q", got)
	}
	if hs := cap.histograms["insights_step_duration_seconds"]; len(hs) != 1 || hs[0] != 2 {
		t.Fatalf("durations = %v", hs)
	}

	RecordStep("job1", "join", errors.New("x"), time.Second)
	if got := cap.labels["insights_step_total"]["status"]; got != "failure" {
		t.Fatalf("status = %q", got)
	}
}

func TestRecordRowsIgnoresNonPositive(t *testing.T) {
	cap := newCapture()
	SetBackend(cap)
	defer SetBackend(nopBackend{})

	RecordRows("job1", "fact_rows", 0)
	RecordRows("job1", "fact_rows", -5)
	if cap.counters["insights_rows_total"] != 0 {
		t.Fatalf("non-positive deltas should be dropped")
	}

	RecordRows("job1", "fact_rows", 42)
	if cap.counters["insights_rows_total"] != 42 {
		t.Fatalf("rows counter = %v", cap.counters["insights_rows_total"])
	}
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	cap := newCapture()
	SetBackend(cap)
	defer SetBackend(nopBackend{})

	SetBackend(nil)
	RecordRows("j", "k", 1)
	if cap.counters["insights_rows_total"] != 1 {
		t.Fatalf("nil SetBackend should keep the installed backend")
	}
}

func TestFlushDelegates(t *testing.T) {
	cap := newCapture()
	SetBackend(cap)
	defer SetBackend(nopBackend{})

	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if cap.flushed != 1 {
		t.Fatalf("flushed = %d", cap.flushed)
	}
}
