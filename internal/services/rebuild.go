package services

import (
	"context"
	stderrors "errors"
	"fmt"

	"sales-dashboard/internal/errors"
)

// RebuildState is a step of the admin rebuild control.
//
//	idle -> confirming -> idle (cancelled)
//	                   -> busy -> reloading (success)
//	                           -> idle (failure)
//
// reloading is terminal: the page is about to be replaced.
type RebuildState string

const (
	RebuildIdle       RebuildState = "idle"
	RebuildConfirming RebuildState = "confirming"
	RebuildBusy       RebuildState = "busy"
	RebuildReloading  RebuildState = "reloading"
)

const (
	RebuildConfirmPrompt = "Are you sure? This will delete the current database and rebuild it from Excel. It may take a minute."
	RebuildLabel         = "Rebuild Database"
	RebuildBusyLabel     = "Rebuilding..."
)

var ErrRebuildInProgress = stderrors.New("a database rebuild is already running")

var rebuildTransitions = map[RebuildState][]RebuildState{
	RebuildIdle:       {RebuildConfirming},
	RebuildConfirming: {RebuildIdle, RebuildBusy},
	RebuildBusy:       {RebuildIdle, RebuildReloading},
}

// RebuildUI is the page the rebuild control lives on.
type RebuildUI interface {
	// SetBusy disables the trigger and shows the spinner, or undoes both.
	SetBusy(busy bool) error
	// Notify shows a blocking message to the user.
	Notify(message string) error
	// Reload replaces the page, re-running the initial load.
	Reload() error
}

// RebuildFlow tracks one press of the rebuild button.
type RebuildFlow struct {
	state   RebuildState
	history []RebuildState
}

func NewRebuildFlow() *RebuildFlow {
	return &RebuildFlow{state: RebuildIdle, history: []RebuildState{RebuildIdle}}
}

func (f *RebuildFlow) State() RebuildState {
	return f.state
}

// History lists every state the flow has passed through, in order.
func (f *RebuildFlow) History() []RebuildState {
	out := make([]RebuildState, len(f.history))
	copy(out, f.history)
	return out
}

func (f *RebuildFlow) transition(to RebuildState) error {
	for _, allowed := range rebuildTransitions[f.state] {
		if allowed == to {
			f.state = to
			f.history = append(f.history, to)
			return nil
		}
	}
	return fmt.Errorf("invalid rebuild transition %s -> %s", f.state, to)
}

// RebuildOutcome is what happened to a single rebuild request.
type RebuildOutcome struct {
	Flow    *RebuildFlow
	Result  string
	Message string
	Err     error
}

// RebuildInFlight reports whether a rebuild request is outstanding.
func (d *Dashboard) RebuildInFlight() bool {
	return d.rebuilding.Load()
}

// RebuildDatabase runs the admin rebuild flow against ui. confirmed is the
// user's answer to RebuildConfirmPrompt. The trigger is always restored
// before returning, whatever the backend did.
func (d *Dashboard) RebuildDatabase(ctx context.Context, confirmed bool, ui RebuildUI) RebuildOutcome {
	flow := NewRebuildFlow()
	out := RebuildOutcome{Flow: flow}

	_ = flow.transition(RebuildConfirming)
	if !confirmed {
		_ = flow.transition(RebuildIdle)
		d.logger.InfoContext(ctx, "database rebuild cancelled")
		return out
	}

	if !d.rebuilding.CompareAndSwap(false, true) {
		_ = flow.transition(RebuildIdle)
		out.Err = ErrRebuildInProgress
		out.Message = "Error: " + ErrRebuildInProgress.Error()
		d.notify(ctx, ui, out.Message)
		return out
	}
	defer d.rebuilding.Store(false)

	_ = flow.transition(RebuildBusy)
	if err := ui.SetBusy(true); err != nil {
		d.logger.WarnContext(ctx, "failed to mark rebuild control busy", "error", err)
	}
	defer func() {
		if err := ui.SetBusy(false); err != nil {
			d.logger.WarnContext(ctx, "failed to reset rebuild control", "error", err)
		}
	}()

	d.logger.InfoContext(ctx, "database rebuild started")

	result, err := d.backend.RebuildDatabase(ctx)
	if err != nil {
		_ = flow.transition(RebuildIdle)
		out.Err = err
		out.Message = rebuildFailureMessage(err)
		d.logger.ErrorContext(ctx, "database rebuild failed", "error", err)
		d.notify(ctx, ui, out.Message)
		return out
	}

	out.Result = result.Status
	out.Message = "Database rebuilt successfully! Result: " + result.Status
	d.logger.InfoContext(ctx, "database rebuilt",
		"status", result.Status,
		"message", result.Message,
		"log", result.Log,
	)

	d.notify(ctx, ui, out.Message)
	_ = flow.transition(RebuildReloading)
	if err := ui.Reload(); err != nil {
		d.logger.WarnContext(ctx, "failed to reload page after rebuild", "error", err)
	}
	return out
}

func (d *Dashboard) notify(ctx context.Context, ui RebuildUI, message string) {
	if err := ui.Notify(message); err != nil {
		d.logger.WarnContext(ctx, "failed to notify user", "error", err, "message", message)
	}
}

// rebuildFailureMessage maps a backend error onto what the user is told.
// Non-OK responses show the backend's detail; anything else, including a
// body that would not parse, is reported as a network error.
func rebuildFailureMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		switch appErr.Code {
		case errors.CodeUpstream:
			if appErr.Details != "" {
				return "Error: " + appErr.Details
			}
			return "Error: " + appErr.Message
		case errors.CodeNetwork, errors.CodeParse:
			if appErr.Cause != nil {
				return "Network Error: " + appErr.Cause.Error()
			}
		}
	}
	return "Network Error: " + err.Error()
}
