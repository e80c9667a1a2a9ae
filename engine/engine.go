// Package engine exposes the public facade of the Petri-net execution
// runtime: building and mutating the net, registering callbacks, injecting
// input tokens, starting and stopping execution, and inspecting state.
//
// Every facade is per-instance; there is no global state. Net mutators and
// Execute take the facade's writer lock, and IncrementInputPlace and the net
// queries take its reader lock, before delegating to the managers, the
// executor, and the event loop. Stop, IsEventLoopRunning, the registrations,
// the thread-option getter, the sleep-duration and block-timeout accessors
// and OnEvent take no facade lock; they use the locks of the parts they
// touch.
package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vldtecno/PTN-Engine-sub000/executor"
	"github.com/vldtecno/PTN-Engine-sub000/netlog"
	"github.com/vldtecno/PTN-Engine-sub000/petri"
	"github.com/vldtecno/PTN-Engine-sub000/registry"
)

// ErrAlreadyRunning reports a structural change or a second Execute while
// the event loop is running.
var ErrAlreadyRunning = errors.New("engine: event loop is running")

// Engine is the Petri-net execution facade.
type Engine struct {
	mu sync.RWMutex

	places      *petri.PlacesManager
	transitions *petri.TransitionsManager
	actions     *registry.Registry[petri.Action]
	conditions  *registry.Registry[petri.Condition]

	modeMu sync.RWMutex
	mode   executor.Mode
	exec   executor.ActionsExecutor

	loop *eventLoop

	newInput     atomic.Bool
	blockTimeout atomic.Int64 // nanoseconds; 0 waits without bound
	eventSeq     atomic.Uint64

	logger zerolog.Logger

	observersMu sync.RWMutex
	observers   []func(netlog.Event)
}

// New creates an engine with the given actions thread option.
func New(mode executor.Mode) (*Engine, error) {
	logger := zerolog.Nop()
	exec, err := executor.New(mode, logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		places:      petri.NewPlacesManager(),
		transitions: petri.NewTransitionsManager(),
		actions:     registry.New[petri.Action](),
		conditions:  registry.New[petri.Condition](),
		mode:        mode,
		exec:        exec,
		logger:      logger,
	}
	e.loop = newEventLoop(e)
	return e, nil
}

// SetLogger installs a logger for callback panics and swallowed firing
// failures. Only legal while the event loop is stopped.
func (e *Engine) SetLogger(logger zerolog.Logger) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop.IsRunning() {
		return ErrAlreadyRunning
	}

	e.logger = logger
	exec, err := executor.New(e.GetActionsThreadOption(), logger)
	if err != nil {
		return err
	}
	e.swapExecutor(e.GetActionsThreadOption(), exec)
	return nil
}

// DispatchAction runs a place callback through the configured executor.
// It implements petri.Dispatcher; user code has no reason to call it.
func (e *Engine) DispatchAction(run func()) {
	e.modeMu.RLock()
	exec := e.exec
	e.modeMu.RUnlock()
	exec.Execute(run)
}

// BlockedEnterTimeout implements petri.Dispatcher.
func (e *Engine) BlockedEnterTimeout() time.Duration {
	return time.Duration(e.blockTimeout.Load())
}

// SetBlockOnEnterTimeout bounds the wait of a token deposit on a blocked
// on-enter action. Zero (the default) waits without bound.
func (e *Engine) SetBlockOnEnterTimeout(timeout time.Duration) {
	e.blockTimeout.Store(int64(timeout))
}

// RegisterAction stores a callback under a name, so places created from an
// external description can reference it.
func (e *Engine) RegisterAction(name string, action petri.Action) error {
	return e.actions.Register(name, action)
}

// RegisterCondition stores a guard predicate under a name.
func (e *Engine) RegisterCondition(name string, condition petri.Condition) error {
	return e.conditions.Register(name, condition)
}

// CreatePlace adds a place to the net. Action names, when set, must resolve
// in the registry and take precedence over inline callbacks. Fails with
// ErrAlreadyRunning while the event loop runs.
func (e *Engine) CreatePlace(props petri.PlaceProperties) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop.IsRunning() {
		return ErrAlreadyRunning
	}

	if props.OnEnterActionName != "" {
		action, err := e.actions.Get(props.OnEnterActionName)
		if err != nil {
			return fmt.Errorf("place %q: on-enter action: %w", props.Name, err)
		}
		props.OnEnterAction = action
	}
	if props.OnExitActionName != "" {
		action, err := e.actions.Get(props.OnExitActionName)
		if err != nil {
			return fmt.Errorf("place %q: on-exit action: %w", props.Name, err)
		}
		props.OnExitAction = action
	}

	place, err := petri.NewPlace(props, e)
	if err != nil {
		return err
	}
	return e.places.Insert(place)
}

// CreateTransition adds a transition to the net. Condition names, when
// given, must resolve in the registry; inline conditions are registered
// under generated names so they survive a properties round trip. Fails with
// ErrAlreadyRunning while the event loop runs.
func (e *Engine) CreateTransition(props petri.TransitionProperties) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop.IsRunning() {
		return ErrAlreadyRunning
	}

	conditions, err := e.resolveConditions(props)
	if err != nil {
		return fmt.Errorf("transition %q: %w", props.Name, err)
	}

	arcs := func(arcProps []petri.ArcProperties) ([]petri.Arc, error) {
		out := make([]petri.Arc, 0, len(arcProps))
		for _, ap := range arcProps {
			place, err := e.places.Get(ap.PlaceName)
			if err != nil {
				return nil, err
			}
			out = append(out, petri.Arc{Place: place, Weight: ap.NormalizedWeight()})
		}
		return out, nil
	}

	activation, err := arcs(props.ActivationArcs)
	if err != nil {
		return fmt.Errorf("transition %q: %w", props.Name, err)
	}
	destination, err := arcs(props.DestinationArcs)
	if err != nil {
		return fmt.Errorf("transition %q: %w", props.Name, err)
	}
	inhibitor, err := arcs(props.InhibitorArcs)
	if err != nil {
		return fmt.Errorf("transition %q: %w", props.Name, err)
	}

	transition, err := petri.NewTransition(props.Name, activation, destination, inhibitor,
		conditions, props.RequireNoActionsInExecution)
	if err != nil {
		return err
	}
	return e.transitions.Insert(transition)
}

// resolveConditions maps the properties' condition references to named
// guards. Named references win over inline functions, matching the build
// contract of imported nets.
func (e *Engine) resolveConditions(props petri.TransitionProperties) ([]petri.NamedCondition, error) {
	if len(props.AdditionalConditionsNames) > 0 {
		conditions := make([]petri.NamedCondition, 0, len(props.AdditionalConditionsNames))
		for _, name := range props.AdditionalConditionsNames {
			condition, err := e.conditions.Get(name)
			if err != nil {
				return nil, fmt.Errorf("condition %q: %w", name, err)
			}
			conditions = append(conditions, petri.NamedCondition{Name: name, Condition: condition})
		}
		return conditions, nil
	}

	conditions := make([]petri.NamedCondition, 0, len(props.AdditionalConditions))
	for _, condition := range props.AdditionalConditions {
		name := "anonymous_" + uuid.NewString()
		if condition != nil {
			if err := e.conditions.Register(name, condition); err != nil {
				return nil, err
			}
		}
		conditions = append(conditions, petri.NamedCondition{Name: name, Condition: condition})
	}
	return conditions, nil
}

// AddArc links an existing place to an existing transition. Fails with
// ErrAlreadyRunning while the event loop runs.
func (e *Engine) AddArc(props petri.ArcProperties) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop.IsRunning() {
		return ErrAlreadyRunning
	}

	place, err := e.places.Get(props.PlaceName)
	if err != nil {
		return fmt.Errorf("%w: %v", petri.ErrInvalidArcOp, err)
	}
	transition, err := e.transitions.Get(props.TransitionName)
	if err != nil {
		return fmt.Errorf("%w: %v", petri.ErrInvalidArcOp, err)
	}
	return transition.AddArc(place, props.Type, props.NormalizedWeight())
}

// RemoveArc unlinks a place from a transition. Fails with ErrAlreadyRunning
// while the event loop runs.
func (e *Engine) RemoveArc(props petri.ArcProperties) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop.IsRunning() {
		return ErrAlreadyRunning
	}

	place, err := e.places.Get(props.PlaceName)
	if err != nil {
		return fmt.Errorf("%w: %v", petri.ErrInvalidArcOp, err)
	}
	transition, err := e.transitions.Get(props.TransitionName)
	if err != nil {
		return fmt.Errorf("%w: %v", petri.ErrInvalidArcOp, err)
	}
	return transition.RemoveArc(place, props.Type)
}

// ClearNet drops all places and transitions. Only legal while stopped.
func (e *Engine) ClearNet() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop.IsRunning() {
		return ErrAlreadyRunning
	}
	e.transitions.Clear()
	e.places.Clear()
	return nil
}

// ClearInputPlaces resets every input place to zero tokens without
// invoking callbacks.
func (e *Engine) ClearInputPlaces() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.places.ClearInputPlaces()
	e.newInput.Store(false)
}

// Execute starts the net. Under SingleThread it drives firing iterations on
// the calling goroutine until quiescence and returns; otherwise it starts
// the event loop and returns immediately. With log set, the marking is
// written to w (default os.Stdout) before every iteration.
func (e *Engine) Execute(log bool, w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	return e.loop.Start(log, w)
}

// Stop halts the event loop and returns once its goroutine has exited.
// Idempotent and safe to call at any time; callbacks already running are
// not interrupted.
func (e *Engine) Stop() {
	e.loop.Stop()
}

// IsEventLoopRunning reports whether the background firing loop is active.
func (e *Engine) IsEventLoopRunning() bool {
	return e.loop.IsRunning()
}

// SetActionsThreadOption reconfigures where callbacks run. Only legal while
// the event loop is stopped.
func (e *Engine) SetActionsThreadOption(mode executor.Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop.IsRunning() {
		return ErrAlreadyRunning
	}
	if mode == e.GetActionsThreadOption() {
		return nil
	}

	exec, err := executor.New(mode, e.logger)
	if err != nil {
		return err
	}
	e.swapExecutor(mode, exec)
	return nil
}

func (e *Engine) swapExecutor(mode executor.Mode, exec executor.ActionsExecutor) {
	e.modeMu.Lock()
	old := e.exec
	e.mode = mode
	e.exec = exec
	e.modeMu.Unlock()
	old.Shutdown()
}

// GetActionsThreadOption returns the configured callback execution mode.
func (e *Engine) GetActionsThreadOption() executor.Mode {
	e.modeMu.RLock()
	defer e.modeMu.RUnlock()
	return e.mode
}

// SetEventLoopSleepDuration changes how long the loop waits for new input
// before re-evaluating enabledness. Takes effect on the next wait.
func (e *Engine) SetEventLoopSleepDuration(d time.Duration) {
	e.loop.SetSleepDuration(d)
}

// GetEventLoopSleepDuration returns the loop's wait duration.
func (e *Engine) GetEventLoopSleepDuration() time.Duration {
	return e.loop.SleepDuration()
}

// IncrementInputPlace adds one token to the named input place, flags the
// new input, and wakes the event loop. It never blocks on the loop.
func (e *Engine) IncrementInputPlace(name string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.places.IncrementInputPlace(name); err != nil {
		return err
	}
	e.newInput.Store(true)
	e.loop.NotifyNewEvent()
	e.emit(netlog.Event{Kind: netlog.KindInput, Place: name, Tokens: 1})
	return nil
}

// GetNumberOfTokens returns the token count of the named place.
func (e *Engine) GetNumberOfTokens(name string) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.places.TokenCount(name)
}

// Marking returns the current token count of every place.
func (e *Engine) Marking() map[string]uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.places.Marking()
}

// PrintState writes one "name: tokens" line per place.
func (e *Engine) PrintState(w io.Writer) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.places.PrintState(w)
}

// GetPlacesProperties returns an owned snapshot of all places, suitable for
// export and rebuilding an equivalent net.
func (e *Engine) GetPlacesProperties() []petri.PlaceProperties {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.places.Properties()
}

// GetTransitionsProperties returns an owned snapshot of all transitions.
func (e *Engine) GetTransitionsProperties() []petri.TransitionProperties {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.transitions.Properties()
}

// OnEvent registers an observer for net events (inputs, firings, swallowed
// failures). Observers run synchronously on the emitting goroutine and must
// return quickly.
func (e *Engine) OnEvent(handler func(netlog.Event)) {
	e.observersMu.Lock()
	defer e.observersMu.Unlock()
	e.observers = append(e.observers, handler)
}

func (e *Engine) emit(event netlog.Event) {
	e.observersMu.RLock()
	handlers := e.observers
	e.observersMu.RUnlock()
	if len(handlers) == 0 {
		return
	}

	event.Seq = e.eventSeq.Add(1)
	event.Time = time.Now()
	for _, handler := range handlers {
		handler(event)
	}
}

// fireIteration runs one pass of the firing engine: clear the new-input
// flag, collect the enabled transitions in random order, and fire each
// once. A firing failure is logged and swallowed; the rolled-back
// transition simply does not fire. Returns whether any transition fired.
func (e *Engine) fireIteration(logState bool, w io.Writer) bool {
	e.newInput.Store(false)

	if logState {
		e.places.PrintState(w)
	}

	fired := false
	for _, transition := range e.transitions.CollectEnabledRandomly() {
		ok, err := transition.Fire()
		if err != nil {
			e.logger.Error().Err(err).Str("transition", transition.Name()).Msg("transition failed to fire")
			e.emit(netlog.Event{Kind: netlog.KindError, Transition: transition.Name(), Detail: err.Error()})
			continue
		}
		if ok {
			fired = true
			e.emit(netlog.Event{Kind: netlog.KindFire, Transition: transition.Name()})
		}
	}
	return fired
}

// newInputReceived reports whether an input token arrived since the last
// iteration started.
func (e *Engine) newInputReceived() bool {
	return e.newInput.Load()
}

// actionsMode lets the event loop pick its start behavior.
func (e *Engine) actionsMode() executor.Mode {
	return e.GetActionsThreadOption()
}
