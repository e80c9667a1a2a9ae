package netlog

import (
	"reflect"
	"testing"
	"time"
)

func statsLog() *Log {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	log := NewLog()
	for _, e := range []Event{
		{Seq: 1, Time: base, Kind: KindInput, Place: "In"},
		{Seq: 2, Time: base.Add(10 * time.Millisecond), Kind: KindFire, Transition: "T1"},
		{Seq: 3, Time: base.Add(20 * time.Millisecond), Kind: KindFire, Transition: "T2"},
		{Seq: 4, Time: base.Add(40 * time.Millisecond), Kind: KindFire, Transition: "T1"},
		{Seq: 5, Time: base.Add(50 * time.Millisecond), Kind: KindError, Transition: "T3"},
	} {
		log.Record(e)
	}
	return log
}

func TestFiringCounts(t *testing.T) {
	counts := statsLog().FiringCounts()
	if counts["T1"] != 2 || counts["T2"] != 1 || len(counts) != 2 {
		t.Errorf("FiringCounts() = %v, want map[T1:2 T2:1]", counts)
	}
}

func TestInterFiringTimes(t *testing.T) {
	got := statsLog().InterFiringTimes()
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InterFiringTimes() = %v, want %v", got, want)
	}
}

func TestSummarize(t *testing.T) {
	s := statsLog().Summarize()
	if s.NumEvents != 5 || s.NumInputs != 1 || s.NumFirings != 3 || s.NumErrors != 1 {
		t.Errorf("Summarize() counts = %+v", s)
	}
	if s.NumTransitions != 2 {
		t.Errorf("NumTransitions = %d, want 2", s.NumTransitions)
	}
	if s.Duration != 50*time.Millisecond {
		t.Errorf("Duration = %v, want 50ms", s.Duration)
	}
	if s.AvgInterFiring != 15*time.Millisecond {
		t.Errorf("AvgInterFiring = %v, want 15ms", s.AvgInterFiring)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := NewLog().Summarize()
	if s.NumEvents != 0 || s.Duration != 0 || s.AvgInterFiring != 0 {
		t.Errorf("Summarize() of empty log = %+v, want zeros", s)
	}
}

func TestTopTransitions(t *testing.T) {
	got := statsLog().TopTransitions()
	want := []string{"T1", "T2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopTransitions() = %v, want %v", got, want)
	}
}
