// Package petri implements the core data structures of an executable
// Place/Transition net: places holding tokens, transitions with weighted
// activation, destination and inhibitor arcs, and the name-indexed managers
// that own them. Places run user callbacks when tokens arrive or leave;
// transitions decide enabledness and perform the token transit.
package petri

import "fmt"

// Action is a user callback attached to a place, fired when tokens enter or
// exit it.
type Action func()

// Condition is a user guard predicate attached to a transition. All of a
// transition's conditions must return true for it to fire.
type Condition func() bool

// ArcType classifies how an arc connects a place to a transition.
type ArcType int

const (
	// ArcActivation consumes tokens from the place when the transition fires.
	ArcActivation ArcType = iota
	// ArcDestination produces tokens in the place when the transition fires.
	ArcDestination
	// ArcBidirectional expands to one activation plus one destination arc.
	ArcBidirectional
	// ArcInhibitor blocks the transition while the place holds any token.
	ArcInhibitor
)

// String returns the arc type's wire name.
func (t ArcType) String() string {
	switch t {
	case ArcActivation:
		return "ACTIVATION"
	case ArcDestination:
		return "DESTINATION"
	case ArcBidirectional:
		return "BIDIRECTIONAL"
	case ArcInhibitor:
		return "INHIBITOR"
	default:
		return fmt.Sprintf("ArcType(%d)", int(t))
	}
}

// ParseArcType converts a wire name back to an ArcType.
func ParseArcType(s string) (ArcType, error) {
	switch s {
	case "ACTIVATION":
		return ArcActivation, nil
	case "DESTINATION":
		return ArcDestination, nil
	case "BIDIRECTIONAL":
		return ArcBidirectional, nil
	case "INHIBITOR":
		return ArcInhibitor, nil
	default:
		return ArcActivation, fmt.Errorf("%w: unknown arc type %q", ErrInvalidArcOp, s)
	}
}

// ArcProperties describes one arc of a transition. A zero Weight means the
// default weight of 1, so the struct can be written as a literal with omitted
// fields.
type ArcProperties struct {
	Weight         uint64
	PlaceName      string
	TransitionName string
	Type           ArcType
}

// NormalizedWeight maps the zero value to the default weight of 1.
func (a ArcProperties) NormalizedWeight() uint64 {
	if a.Weight == 0 {
		return 1
	}
	return a.Weight
}

// PlaceProperties describes a place to be created, and is also the snapshot
// record returned when exporting a net. On export InitialNumberOfTokens
// carries the place's current token count.
type PlaceProperties struct {
	Name                  string
	InitialNumberOfTokens uint64

	// Labels used to resolve the callbacks in the action registry when the
	// net is built from an external description.
	OnEnterActionName string
	OnExitActionName  string

	// Callbacks passed inline. Ignored when the corresponding name is set.
	OnEnterAction Action
	OnExitAction  Action

	// Input flags the place as externally incrementable.
	Input bool
}

// TransitionProperties describes a transition to be created, and is also the
// snapshot record returned when exporting a net.
type TransitionProperties struct {
	Name string

	ActivationArcs  []ArcProperties
	DestinationArcs []ArcProperties
	InhibitorArcs   []ArcProperties

	// Names of registered conditions, resolved when the net is built.
	AdditionalConditionsNames []string

	// Conditions passed inline, used when no names are given.
	AdditionalConditions []Condition

	// RequireNoActionsInExecution keeps the transition from firing while any
	// activation place still has an on-enter action in flight.
	RequireNoActionsInExecution bool
}
