// Package parser handles JSON and YAML import/export of net descriptions.
// A Document round-trips the property snapshots exposed by the engine
// facade; callbacks are referenced by registry name and re-resolved when
// the net is rebuilt.
package parser

import (
	"fmt"

	"github.com/vldtecno/PTN-Engine-sub000/engine"
	"github.com/vldtecno/PTN-Engine-sub000/executor"
	"github.com/vldtecno/PTN-Engine-sub000/petri"
)

// Document is the serialized form of a net.
type Document struct {
	// Mode is the actions thread option wire name (optional; defaults to
	// the engine's current setting).
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	Places      []PlaceDef      `json:"places" yaml:"places"`
	Transitions []TransitionDef `json:"transitions" yaml:"transitions"`
}

// PlaceDef describes one place.
type PlaceDef struct {
	Name          string `json:"name" yaml:"name"`
	InitialTokens uint64 `json:"initialTokens,omitempty" yaml:"initial_tokens,omitempty"`
	OnEnterAction string `json:"onEnterAction,omitempty" yaml:"on_enter_action,omitempty"`
	OnExitAction  string `json:"onExitAction,omitempty" yaml:"on_exit_action,omitempty"`
	Input         bool   `json:"input,omitempty" yaml:"input,omitempty"`
}

// ArcDef describes one arc endpoint. A zero weight means 1.
type ArcDef struct {
	Place  string `json:"place" yaml:"place"`
	Weight uint64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// TransitionDef describes one transition.
type TransitionDef struct {
	Name                        string   `json:"name" yaml:"name"`
	Activation                  []ArcDef `json:"activation,omitempty" yaml:"activation,omitempty"`
	Destination                 []ArcDef `json:"destination,omitempty" yaml:"destination,omitempty"`
	Inhibitor                   []ArcDef `json:"inhibitor,omitempty" yaml:"inhibitor,omitempty"`
	Conditions                  []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	RequireNoActionsInExecution bool     `json:"requireNoActionsInExecution,omitempty" yaml:"require_no_actions_in_execution,omitempty"`
}

// Export captures an engine's current net as a document.
func Export(e *engine.Engine) *Document {
	doc := &Document{Mode: e.GetActionsThreadOption().String()}

	for _, props := range e.GetPlacesProperties() {
		doc.Places = append(doc.Places, PlaceDef{
			Name:          props.Name,
			InitialTokens: props.InitialNumberOfTokens,
			OnEnterAction: props.OnEnterActionName,
			OnExitAction:  props.OnExitActionName,
			Input:         props.Input,
		})
	}

	arcDefs := func(arcs []petri.ArcProperties) []ArcDef {
		defs := make([]ArcDef, 0, len(arcs))
		for _, arc := range arcs {
			defs = append(defs, ArcDef{Place: arc.PlaceName, Weight: arc.NormalizedWeight()})
		}
		return defs
	}

	for _, props := range e.GetTransitionsProperties() {
		doc.Transitions = append(doc.Transitions, TransitionDef{
			Name:                        props.Name,
			Activation:                  arcDefs(props.ActivationArcs),
			Destination:                 arcDefs(props.DestinationArcs),
			Inhibitor:                   arcDefs(props.InhibitorArcs),
			Conditions:                  append([]string(nil), props.AdditionalConditionsNames...),
			RequireNoActionsInExecution: props.RequireNoActionsInExecution,
		})
	}
	return doc
}

// Build constructs the document's net on an engine. Every referenced action
// and condition name must already resolve in the engine's registry,
// otherwise construction fails.
func Build(e *engine.Engine, doc *Document) error {
	if doc.Mode != "" {
		mode, err := executor.ParseMode(doc.Mode)
		if err != nil {
			return err
		}
		if err := e.SetActionsThreadOption(mode); err != nil {
			return err
		}
	}

	for _, place := range doc.Places {
		err := e.CreatePlace(petri.PlaceProperties{
			Name:                  place.Name,
			InitialNumberOfTokens: place.InitialTokens,
			OnEnterActionName:     place.OnEnterAction,
			OnExitActionName:      place.OnExitAction,
			Input:                 place.Input,
		})
		if err != nil {
			return fmt.Errorf("building place %q: %w", place.Name, err)
		}
	}

	arcProps := func(defs []ArcDef, arcType petri.ArcType, transition string) []petri.ArcProperties {
		props := make([]petri.ArcProperties, 0, len(defs))
		for _, def := range defs {
			props = append(props, petri.ArcProperties{
				Weight:         def.Weight,
				PlaceName:      def.Place,
				TransitionName: transition,
				Type:           arcType,
			})
		}
		return props
	}

	for _, transition := range doc.Transitions {
		err := e.CreateTransition(petri.TransitionProperties{
			Name:                        transition.Name,
			ActivationArcs:              arcProps(transition.Activation, petri.ArcActivation, transition.Name),
			DestinationArcs:             arcProps(transition.Destination, petri.ArcDestination, transition.Name),
			InhibitorArcs:               arcProps(transition.Inhibitor, petri.ArcInhibitor, transition.Name),
			AdditionalConditionsNames:   transition.Conditions,
			RequireNoActionsInExecution: transition.RequireNoActionsInExecution,
		})
		if err != nil {
			return fmt.Errorf("building transition %q: %w", transition.Name, err)
		}
	}
	return nil
}

// Validate checks a document for structural problems without building it:
// empty or duplicate names, arcs to unknown places, and places repeated
// within one arc list are reported.
func Validate(doc *Document) []error {
	var problems []error

	places := make(map[string]bool)
	for _, place := range doc.Places {
		if place.Name == "" {
			problems = append(problems, fmt.Errorf("place with empty name"))
			continue
		}
		if places[place.Name] {
			problems = append(problems, fmt.Errorf("duplicate place %q", place.Name))
		}
		places[place.Name] = true
	}

	transitions := make(map[string]bool)
	for _, transition := range doc.Transitions {
		if transition.Name == "" {
			problems = append(problems, fmt.Errorf("transition with empty name"))
			continue
		}
		if transitions[transition.Name] {
			problems = append(problems, fmt.Errorf("duplicate transition %q", transition.Name))
		}
		transitions[transition.Name] = true

		for _, group := range [][]ArcDef{transition.Activation, transition.Destination, transition.Inhibitor} {
			seen := make(map[string]bool)
			for _, arc := range group {
				if !places[arc.Place] {
					problems = append(problems,
						fmt.Errorf("transition %q: arc to unknown place %q", transition.Name, arc.Place))
				}
				if seen[arc.Place] {
					problems = append(problems,
						fmt.Errorf("transition %q: repeated place %q in arc list", transition.Name, arc.Place))
				}
				seen[arc.Place] = true
			}
		}
	}
	return problems
}
