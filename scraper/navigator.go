package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/pinscout/config"
	"github.com/use-agent/pinscout/models"
)

// actionTimeout bounds a single interaction (click, type, key press) once
// its target element is known to exist.
const actionTimeout = 10 * time.Second

// StepKind tags a navigation step as mandatory or optional.
type StepKind int

const (
	// Mandatory steps abort the workflow on any failure.
	Mandatory StepKind = iota
	// Optional steps treat failure as "not present" and advance anyway.
	Optional
)

func (k StepKind) String() string {
	if k == Optional {
		return "optional"
	}
	return "mandatory"
}

// Step is one transition of the navigation state machine.
type Step struct {
	// State is reached when the step succeeds (or is skipped, if optional).
	State NavState
	Kind  StepKind

	// Settle is a fixed floor applied after the step succeeds, for UI
	// transitions that expose no completion signal.
	Settle time.Duration

	// TimeoutCode classifies a deadline failure; SELECTOR_TIMEOUT if empty.
	TimeoutCode string

	Run func(ctx context.Context, p Page) error
}

func (s Step) fail(err error) *models.ScrapeError {
	code := s.TimeoutCode
	if code == "" {
		code = models.ErrCodeSelectorTimeout
	}
	return categorizeError(err, code, fmt.Sprintf("step %s failed", s.State))
}

// Navigator drives a page through a sequence of steps.
type Navigator struct {
	log *slog.Logger
}

// Drive executes steps in order and returns the last state reached.
// Optional step failures never escape; the first mandatory failure is
// returned as a classified *models.ScrapeError.
func (n *Navigator) Drive(ctx context.Context, p Page, steps []Step) (NavState, error) {
	log := n.log
	if log == nil {
		log = slog.Default()
	}

	state := StateInit
	for _, step := range steps {
		log.Debug("navigation step", "from", state, "to", step.State, "kind", step.Kind)

		if err := step.Run(ctx, p); err != nil {
			if step.Kind == Optional && ctx.Err() == nil {
				log.Info("optional step absent, continuing", "state", step.State, "reason", err)
				state = step.State
				continue
			}
			log.Warn("navigation step failed", "state", step.State, "error", err)
			return state, step.fail(err)
		}

		if err := settle(ctx, step.Settle); err != nil {
			return state, step.fail(err)
		}
		state = step.State
		log.Info("navigation state reached", "state", state)
	}
	return state, nil
}

// navigationSteps builds the step table from Init to SearchInputReady.
func navigationSteps(wf config.WorkflowConfig, sel Selectors, pincode string) []Step {
	return []Step{
		{
			State:       StatePageLoaded,
			Kind:        Mandatory,
			TimeoutCode: models.ErrCodeNavigationTimeout,
			Run: func(ctx context.Context, p Page) error {
				ctx, cancel := context.WithTimeout(ctx, wf.NavigationTimeout)
				defer cancel()
				if err := p.Navigate(ctx, wf.TargetURL); err != nil {
					return fmt.Errorf("navigate to %s: %w", wf.TargetURL, err)
				}
				return nil
			},
		},
		{
			State:  StateAppModalHandled,
			Kind:   Optional,
			Settle: wf.ModalSettle,
			Run:    clickWhenPresent(sel.AppModalContinue, wf.AppModalTimeout),
		},
		{
			State:  StateLocationModalHandled,
			Kind:   Optional,
			Settle: wf.ModalSettle,
			Run:    clickWhenPresent(sel.LocationModalManual, wf.LocationModalTimeout),
		},
		{
			State:  StateLocationSet,
			Kind:   Mandatory,
			Settle: wf.LocationSettle,
			Run: func(ctx context.Context, p Page) error {
				if err := waitFor(ctx, p, sel.LocationInput, wf.LocationInputTimeout); err != nil {
					return fmt.Errorf("location input: %w", err)
				}
				if err := act(ctx, func(ctx context.Context) error {
					return p.Type(ctx, sel.LocationInput, pincode)
				}); err != nil {
					return fmt.Errorf("type pincode: %w", err)
				}
				if err := waitFor(ctx, p, sel.LocationSuggestion, wf.SuggestionTimeout); err != nil {
					return fmt.Errorf("location suggestions: %w", err)
				}
				if err := act(ctx, func(ctx context.Context) error {
					return p.Click(ctx, sel.LocationSuggestion)
				}); err != nil {
					return fmt.Errorf("select first suggestion: %w", err)
				}
				return nil
			},
		},
		{
			State:  StateSearchPageOpen,
			Kind:   Mandatory,
			Settle: wf.SearchTransitionDelay,
			Run:    clickWhenPresent(sel.SearchButton, wf.SearchButtonTimeout),
		},
		{
			State: StateSearchInputReady,
			Kind:  Mandatory,
			Run: func(ctx context.Context, p Page) error {
				if err := waitFor(ctx, p, sel.SearchInput, wf.SearchInputTimeout); err != nil {
					return fmt.Errorf("search input: %w", err)
				}
				return nil
			},
		},
	}
}

// clickWhenPresent waits up to d for selector, then clicks it.
func clickWhenPresent(selector string, d time.Duration) func(context.Context, Page) error {
	return func(ctx context.Context, p Page) error {
		if err := waitFor(ctx, p, selector, d); err != nil {
			return fmt.Errorf("wait for %s: %w", selector, err)
		}
		if err := act(ctx, func(ctx context.Context) error {
			return p.Click(ctx, selector)
		}); err != nil {
			return fmt.Errorf("click %s: %w", selector, err)
		}
		return nil
	}
}

// waitFor waits at most d for selector to match.
func waitFor(ctx context.Context, p Page, selector string, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return p.WaitElement(ctx, selector)
}

// act runs fn under actionTimeout.
func act(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	return fn(ctx)
}

// settle sleeps for d unless ctx ends first.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
