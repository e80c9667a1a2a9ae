package petri

import (
	"errors"
	"math"
	"testing"
)

func newTestPlaces(t *testing.T, tokens ...uint64) []*Place {
	t.Helper()
	places := make([]*Place, 0, len(tokens))
	for i, n := range tokens {
		places = append(places, mustPlace(t, PlaceProperties{
			Name:                  string(rune('A' + i)),
			InitialNumberOfTokens: n,
		}, &syncDispatcher{}))
	}
	return places
}

func mustTransition(t *testing.T, name string, activation, destination, inhibitor []Arc,
	conditions []NamedCondition, requireNoActions bool) *Transition {
	t.Helper()
	transition, err := NewTransition(name, activation, destination, inhibitor, conditions, requireNoActions)
	if err != nil {
		t.Fatalf("NewTransition(%q) failed: %v", name, err)
	}
	return transition
}

func TestTransitionRejectsZeroWeight(t *testing.T) {
	places := newTestPlaces(t, 1)
	_, err := NewTransition("T", []Arc{{Place: places[0], Weight: 0}}, nil, nil, nil, false)
	if !errors.Is(err, ErrZeroWeight) {
		t.Errorf("NewTransition with zero weight = %v, want ErrZeroWeight", err)
	}
}

func TestTransitionRejectsRepeatedPlace(t *testing.T) {
	places := newTestPlaces(t, 1)
	arcs := []Arc{{Place: places[0], Weight: 1}, {Place: places[0], Weight: 2}}

	for _, tc := range []struct {
		name string
		act  []Arc
		dst  []Arc
		inh  []Arc
	}{
		{"activation", arcs, nil, nil},
		{"destination", nil, arcs, nil},
		{"inhibitor", nil, nil, arcs},
	} {
		if _, err := NewTransition("T", tc.act, tc.dst, tc.inh, nil, false); !errors.Is(err, ErrRepeatedPlaceInArcList) {
			t.Errorf("%s list repetition = %v, want ErrRepeatedPlaceInArcList", tc.name, err)
		}
	}
}

func TestTransitionRejectsNilCondition(t *testing.T) {
	_, err := NewTransition("T", nil, nil, nil, []NamedCondition{{Name: "broken"}}, false)
	if !errors.Is(err, ErrNilCondition) {
		t.Errorf("NewTransition with nil condition = %v, want ErrNilCondition", err)
	}
}

func TestEnabledness(t *testing.T) {
	places := newTestPlaces(t, 2, 0, 0)

	tests := []struct {
		name      string
		activation []Arc
		inhibitor  []Arc
		want      bool
	}{
		{"tokens cover weight", []Arc{{Place: places[0], Weight: 2}}, nil, true},
		{"weight exceeds tokens", []Arc{{Place: places[0], Weight: 3}}, nil, false},
		{"empty inhibitor place", []Arc{{Place: places[0], Weight: 1}}, []Arc{{Place: places[1], Weight: 1}}, true},
		{"occupied inhibitor place", nil, []Arc{{Place: places[0], Weight: 1}}, false},
		{"no arcs", nil, nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transition := mustTransition(t, "T", tc.activation, nil, tc.inhibitor, nil, false)
			if got := transition.IsEnabled(); got != tc.want {
				t.Errorf("IsEnabled() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestInhibitorAnyTokenBlocks(t *testing.T) {
	places := newTestPlaces(t, 5)
	// A stored inhibitor weight above the token count still blocks.
	transition := mustTransition(t, "T", nil, nil, []Arc{{Place: places[0], Weight: 100}}, nil, false)
	if transition.IsEnabled() {
		t.Error("IsEnabled() = true with occupied inhibitor place, want false")
	}
}

func TestFireMovesTokensByWeight(t *testing.T) {
	places := newTestPlaces(t, 3, 0, 0)

	transition := mustTransition(t, "T",
		[]Arc{{Place: places[0], Weight: 3}},
		[]Arc{{Place: places[1], Weight: 4}, {Place: places[2], Weight: 10}},
		nil, nil, false)

	fired, err := transition.Fire()
	if err != nil || !fired {
		t.Fatalf("Fire() = (%v, %v), want (true, nil)", fired, err)
	}
	for i, want := range []uint64{0, 4, 10} {
		if got := places[i].TokenCount(); got != want {
			t.Errorf("place %d tokens = %d, want %d", i, got, want)
		}
	}
}

func TestFireRespectsGuards(t *testing.T) {
	places := newTestPlaces(t, 1, 0)
	allow := false

	transition := mustTransition(t, "T",
		[]Arc{{Place: places[0], Weight: 1}},
		[]Arc{{Place: places[1], Weight: 1}},
		nil,
		[]NamedCondition{{Name: "allow", Condition: func() bool { return allow }}},
		false)

	if fired, err := transition.Fire(); err != nil || fired {
		t.Fatalf("Fire() with false guard = (%v, %v), want (false, nil)", fired, err)
	}
	if got := places[0].TokenCount(); got != 1 {
		t.Errorf("tokens moved despite false guard: place A = %d, want 1", got)
	}

	allow = true
	if fired, err := transition.Fire(); err != nil || !fired {
		t.Fatalf("Fire() with true guard = (%v, %v), want (true, nil)", fired, err)
	}
}

func TestRequireNoActionsInExecution(t *testing.T) {
	dispatcher := newGatedDispatcher()
	source := mustPlace(t, PlaceProperties{Name: "P", OnEnterAction: func() {}}, dispatcher)

	transition := mustTransition(t, "T", []Arc{{Place: source, Weight: 1}}, nil, nil, nil, true)

	if err := source.Enter(1); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}

	// The on-enter action is gated, so it counts as in flight.
	if fired, err := transition.Fire(); err != nil || fired {
		t.Fatalf("Fire() with action in flight = (%v, %v), want (false, nil)", fired, err)
	}

	close(dispatcher.release)
	dispatcher.wg.Wait()

	if fired, err := transition.Fire(); err != nil || !fired {
		t.Fatalf("Fire() after action returned = (%v, %v), want (true, nil)", fired, err)
	}
	if got := source.TokenCount(); got != 0 {
		t.Errorf("source tokens = %d, want 0", got)
	}
}

func TestFireRollsBackOnOverflow(t *testing.T) {
	source := mustPlace(t, PlaceProperties{Name: "S", InitialNumberOfTokens: 1}, &syncDispatcher{})
	full := mustPlace(t, PlaceProperties{Name: "F", InitialNumberOfTokens: math.MaxUint64}, &syncDispatcher{})
	other := mustPlace(t, PlaceProperties{Name: "O"}, &syncDispatcher{})

	transition := mustTransition(t, "T",
		[]Arc{{Place: source, Weight: 1}},
		[]Arc{{Place: other, Weight: 1}, {Place: full, Weight: 1}},
		nil, nil, false)

	fired, err := transition.Fire()
	if fired {
		t.Error("Fire() reported fired despite overflow")
	}
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("Fire() = %v, want ErrOverflow", err)
	}

	if got := source.TokenCount(); got != 1 {
		t.Errorf("source tokens = %d, want 1 (debit rolled back)", got)
	}
	if got := other.TokenCount(); got != 0 {
		t.Errorf("other tokens = %d, want 0 (credit rolled back)", got)
	}
	if got := full.TokenCount(); got != math.MaxUint64 {
		t.Errorf("full tokens = %d, want unchanged", got)
	}
}

func TestAddArc(t *testing.T) {
	places := newTestPlaces(t, 1, 0)
	transition := mustTransition(t, "T", nil, nil, nil, nil, false)

	if err := transition.AddArc(places[0], ArcActivation, 1); err != nil {
		t.Fatalf("AddArc activation failed: %v", err)
	}
	if err := transition.AddArc(places[0], ArcActivation, 1); !errors.Is(err, ErrInvalidArcOp) {
		t.Errorf("duplicate AddArc = %v, want ErrInvalidArcOp", err)
	}
	if err := transition.AddArc(places[0], ArcActivation, 0); !errors.Is(err, ErrZeroWeight) {
		t.Errorf("AddArc with zero weight = %v, want ErrZeroWeight", err)
	}

	if err := transition.AddArc(places[1], ArcBidirectional, 1); err != nil {
		t.Fatalf("AddArc bidirectional failed: %v", err)
	}
	props := transition.Properties()
	if len(props.ActivationArcs) != 2 || len(props.DestinationArcs) != 1 {
		t.Errorf("arcs after bidirectional add = %d activation, %d destination, want 2 and 1",
			len(props.ActivationArcs), len(props.DestinationArcs))
	}
}

func TestRemoveArc(t *testing.T) {
	places := newTestPlaces(t, 1)
	transition := mustTransition(t, "T", []Arc{{Place: places[0], Weight: 1}}, nil, nil, nil, false)

	if err := transition.RemoveArc(places[0], ArcActivation); err != nil {
		t.Fatalf("RemoveArc failed: %v", err)
	}
	if err := transition.RemoveArc(places[0], ArcActivation); !errors.Is(err, ErrInvalidArcOp) {
		t.Errorf("RemoveArc on missing arc = %v, want ErrInvalidArcOp", err)
	}
}

func TestTransitionProperties(t *testing.T) {
	places := newTestPlaces(t, 1, 0, 0)
	transition := mustTransition(t, "T",
		[]Arc{{Place: places[0], Weight: 2}},
		[]Arc{{Place: places[1], Weight: 3}},
		[]Arc{{Place: places[2], Weight: 1}},
		[]NamedCondition{{Name: "guard", Condition: func() bool { return true }}},
		true)

	props := transition.Properties()
	if props.Name != "T" || !props.RequireNoActionsInExecution {
		t.Errorf("Properties() = %+v, want name T with requireNoActionsInExecution", props)
	}
	if len(props.ActivationArcs) != 1 || props.ActivationArcs[0].Weight != 2 ||
		props.ActivationArcs[0].PlaceName != places[0].Name() {
		t.Errorf("activation arcs = %+v", props.ActivationArcs)
	}
	if len(props.AdditionalConditionsNames) != 1 || props.AdditionalConditionsNames[0] != "guard" {
		t.Errorf("condition names = %v, want [guard]", props.AdditionalConditionsNames)
	}
}
