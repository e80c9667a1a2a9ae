package petri

import (
	"fmt"
	"sync"
)

// Arc links a transition to a place with a weight.
type Arc struct {
	Place  *Place
	Weight uint64
}

// NamedCondition pairs a guard predicate with its registry label. Anonymous
// guards carry a generated label so they still export.
type NamedCondition struct {
	Name      string
	Condition Condition
}

// Transition decides when to fire and performs the token transit atomically
// with respect to the places it touches.
//
// Inhibitor semantics: any token in an inhibitor place blocks the
// transition. Inhibitor arc weights are stored and exported but not
// interpreted by the firing rule.
type Transition struct {
	mu sync.RWMutex

	name            string
	activationArcs  []Arc
	destinationArcs []Arc
	inhibitorArcs   []Arc
	conditions      []NamedCondition

	requireNoActionsInExecution bool
}

// NewTransition builds a transition over already-created places.
//
// It fails when a place repeats inside a single arc list, when any weight is
// 0, or when a condition function is nil.
func NewTransition(name string, activation, destination, inhibitor []Arc,
	conditions []NamedCondition, requireNoActionsInExecution bool) (*Transition, error) {

	for _, check := range []struct {
		kind string
		arcs []Arc
	}{
		{"activation", activation},
		{"destination", destination},
		{"inhibitor", inhibitor},
	} {
		if err := validateArcs(check.kind, check.arcs); err != nil {
			return nil, fmt.Errorf("transition %q: %w", name, err)
		}
	}
	for _, c := range conditions {
		if c.Condition == nil {
			return nil, fmt.Errorf("transition %q: condition %q: %w", name, c.Name, ErrNilCondition)
		}
	}

	return &Transition{
		name:                        name,
		activationArcs:              append([]Arc(nil), activation...),
		destinationArcs:             append([]Arc(nil), destination...),
		inhibitorArcs:               append([]Arc(nil), inhibitor...),
		conditions:                  append([]NamedCondition(nil), conditions...),
		requireNoActionsInExecution: requireNoActionsInExecution,
	}, nil
}

func validateArcs(kind string, arcs []Arc) error {
	seen := make(map[*Place]bool, len(arcs))
	for _, arc := range arcs {
		if arc.Weight == 0 {
			return fmt.Errorf("%s arc to %q: %w", kind, arc.Place.Name(), ErrZeroWeight)
		}
		if seen[arc.Place] {
			return fmt.Errorf("%s arcs: place %q: %w", kind, arc.Place.Name(), ErrRepeatedPlaceInArcList)
		}
		seen[arc.Place] = true
	}
	return nil
}

// Name returns the transition's identifier.
func (t *Transition) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// IsEnabled reports whether every inhibitor place is empty and every
// activation place holds at least the arc weight.
func (t *Transition) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isEnabled()
}

func (t *Transition) isEnabled() bool {
	return t.checkInhibitorPlaces() && t.checkActivationPlaces()
}

func (t *Transition) checkInhibitorPlaces() bool {
	for _, arc := range t.inhibitorArcs {
		if arc.Place.TokenCount() > 0 {
			return false
		}
	}
	return true
}

func (t *Transition) checkActivationPlaces() bool {
	for _, arc := range t.activationArcs {
		if arc.Place.TokenCount() < arc.Weight {
			return false
		}
	}
	return true
}

// isActive additionally requires all guards true and, with
// RequireNoActionsInExecution, no in-flight on-enter action on any
// activation place.
func (t *Transition) isActive() bool {
	if !t.isEnabled() {
		return false
	}
	if t.requireNoActionsInExecution && !t.noActionsInExecution() {
		return false
	}
	return t.checkConditions()
}

func (t *Transition) noActionsInExecution() bool {
	for _, arc := range t.activationArcs {
		if arc.Place.OnEnterInExecution() {
			return false
		}
	}
	return true
}

func (t *Transition) checkConditions() bool {
	for _, c := range t.conditions {
		if !c.Condition() {
			return false
		}
	}
	return true
}

// Fire attempts to fire the transition, returning whether it fired.
//
// With RequireNoActionsInExecution the on-enter block flag is set on all
// activation places for the duration of the transit, so a racing token
// deposit cannot spawn a callback mid-transit. A failed credit (overflow)
// rolls the marking back to the pre-fire state with silent adjustments;
// on-exit callbacks already dispatched during the debit phase cannot be
// recalled.
func (t *Transition) Fire() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setBlockOnEnterActions(true)
	defer t.setBlockOnEnterActions(false)

	if !t.isActive() {
		return false, nil
	}
	if err := t.transit(); err != nil {
		return false, fmt.Errorf("transition %q: %w", t.name, err)
	}
	return true, nil
}

func (t *Transition) setBlockOnEnterActions(block bool) {
	if !t.requireNoActionsInExecution {
		return
	}
	for _, arc := range t.activationArcs {
		arc.Place.SetBlockOnEnter(block)
	}
}

// transit debits the activation places then credits the destination places,
// compensating both on failure so the transit is all-or-nothing.
func (t *Transition) transit() error {
	for i, arc := range t.activationArcs {
		if err := arc.Place.Exit(arc.Weight); err != nil {
			t.rollbackDebits(i)
			return err
		}
	}
	for i, arc := range t.destinationArcs {
		if err := arc.Place.Enter(arc.Weight); err != nil {
			t.rollbackCredits(i)
			t.rollbackDebits(len(t.activationArcs))
			return err
		}
	}
	return nil
}

func (t *Transition) rollbackDebits(n int) {
	for _, arc := range t.activationArcs[:n] {
		arc.Place.creditTokens(arc.Weight)
	}
}

func (t *Transition) rollbackCredits(n int) {
	for _, arc := range t.destinationArcs[:n] {
		arc.Place.debitTokens(arc.Weight)
	}
}

// AddArc links a place to the transition. A bidirectional arc adds one
// activation and one destination arc. Adding an arc that already exists
// fails with ErrInvalidArcOp.
func (t *Transition) AddArc(place *Place, arcType ArcType, weight uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if weight == 0 {
		return fmt.Errorf("transition %q: arc to %q: %w", t.name, place.Name(), ErrZeroWeight)
	}

	add := func(arcs *[]Arc) error {
		for _, arc := range *arcs {
			if arc.Place == place {
				return fmt.Errorf("transition %q: arc to %q already exists: %w",
					t.name, place.Name(), ErrInvalidArcOp)
			}
		}
		*arcs = append(*arcs, Arc{Place: place, Weight: weight})
		return nil
	}

	switch arcType {
	case ArcActivation:
		return add(&t.activationArcs)
	case ArcDestination:
		return add(&t.destinationArcs)
	case ArcBidirectional:
		if err := add(&t.activationArcs); err != nil {
			return err
		}
		return add(&t.destinationArcs)
	case ArcInhibitor:
		return add(&t.inhibitorArcs)
	default:
		return fmt.Errorf("transition %q: unexpected arc type %v: %w", t.name, arcType, ErrInvalidArcOp)
	}
}

// RemoveArc unlinks a place from the transition. Removing an arc that does
// not exist fails with ErrInvalidArcOp.
func (t *Transition) RemoveArc(place *Place, arcType ArcType) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	remove := func(arcs *[]Arc) error {
		for i, arc := range *arcs {
			if arc.Place == place {
				*arcs = append((*arcs)[:i], (*arcs)[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("transition %q: no arc to %q: %w", t.name, place.Name(), ErrInvalidArcOp)
	}

	switch arcType {
	case ArcActivation:
		return remove(&t.activationArcs)
	case ArcDestination:
		return remove(&t.destinationArcs)
	case ArcBidirectional:
		if err := remove(&t.activationArcs); err != nil {
			return err
		}
		return remove(&t.destinationArcs)
	case ArcInhibitor:
		return remove(&t.inhibitorArcs)
	default:
		return fmt.Errorf("transition %q: unexpected arc type %v: %w", t.name, arcType, ErrInvalidArcOp)
	}
}

// Properties returns a snapshot record of the transition.
func (t *Transition) Properties() TransitionProperties {
	t.mu.RLock()
	defer t.mu.RUnlock()

	arcProps := func(arcs []Arc, arcType ArcType) []ArcProperties {
		props := make([]ArcProperties, 0, len(arcs))
		for _, arc := range arcs {
			props = append(props, ArcProperties{
				Weight:         arc.Weight,
				PlaceName:      arc.Place.Name(),
				TransitionName: t.name,
				Type:           arcType,
			})
		}
		return props
	}

	props := TransitionProperties{
		Name:                        t.name,
		ActivationArcs:              arcProps(t.activationArcs, ArcActivation),
		DestinationArcs:             arcProps(t.destinationArcs, ArcDestination),
		InhibitorArcs:               arcProps(t.inhibitorArcs, ArcInhibitor),
		RequireNoActionsInExecution: t.requireNoActionsInExecution,
	}
	for _, c := range t.conditions {
		props.AdditionalConditionsNames = append(props.AdditionalConditionsNames, c.Name)
		props.AdditionalConditions = append(props.AdditionalConditions, c.Condition)
	}
	return props
}
