// Package avatarclient implements the client side of the avatar generation
// flow: submitting a photo, polling the task status until it resolves, and
// persisting an in-flight marker so polling survives client restarts.
package avatarclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// PollState describes where the poller is in its lifecycle.
type PollState string

const (
	StateIdle     PollState = "idle"
	StatePolling  PollState = "polling"
	StateDone     PollState = "done"
	StateFailed   PollState = "failed"
	StateTimedOut PollState = "timedOut"
)

// Terminal poll outcomes.
var (
	// ErrGenerationFailed indicates the server reported the generation as
	// failed. The TaskStatus returned alongside carries the detail.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrPollTimeout indicates the attempt ceiling was reached while the
	// task was still pending or processing. The server record is left
	// untouched and may still resolve later.
	ErrPollTimeout = errors.New("polling timed out")

	// ErrPollerBusy indicates Poll was called while another poll is running.
	ErrPollerBusy = errors.New("poller is already polling")
)

// TaskStatus is the client-side view of a generation task.
type TaskStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Terminal reports whether the status is success or failed.
func (s *TaskStatus) Terminal() bool {
	return s.Status == "success" || s.Status == "failed"
}

// StatusFetcher retrieves the current status of a generation task.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, taskID string) (*TaskStatus, error)
}

const (
	// DefaultInterval is the spacing between status polls.
	DefaultInterval = 3 * time.Second

	// DefaultMaxAttempts bounds how many polls are made before giving up.
	// At the default interval this is two minutes of wall clock.
	DefaultMaxAttempts = 40

	// DefaultCountdownSeconds seeds the user-facing countdown. It is an
	// estimate shown while polling and is independent of the attempt
	// ceiling; it may reach zero while polling continues.
	DefaultCountdownSeconds = 80
)

// PollerConfig configures the polling loop. Zero values take the defaults.
type PollerConfig struct {
	Interval         time.Duration
	MaxAttempts      int
	CountdownSeconds int

	// OnCountdown, when set, receives the remaining estimate once per
	// second while polling. It is clamped at zero.
	OnCountdown func(secondsRemaining int)

	// OnAttempt, when set, receives each attempt number and the status
	// observed, for progress display.
	OnAttempt func(attempt int, status *TaskStatus)
}

// Poller drives the status polling loop for one generation at a time.
type Poller struct {
	fetcher StatusFetcher
	marker  *MarkerStore
	config  PollerConfig
	logger  *slog.Logger

	mu    sync.Mutex
	state PollState
}

// NewPoller creates a poller. marker may be nil; when set, the pending
// marker is cleared whenever a poll reaches a terminal server state.
func NewPoller(fetcher StatusFetcher, marker *MarkerStore, config PollerConfig, logger *slog.Logger) (*Poller, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("status fetcher cannot be nil")
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.CountdownSeconds <= 0 {
		config.CountdownSeconds = DefaultCountdownSeconds
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetcher: fetcher,
		marker:  marker,
		config:  config,
		logger:  logger.With(slog.String("component", "status_poller")),
		state:   StateIdle,
	}, nil
}

// State returns the poller's current state.
func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) setState(s PollState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Poll polls the task until it reaches a terminal state, the attempt ceiling
// is hit, or the context is cancelled. Transient fetch errors do not abort
// the loop; they consume an attempt and polling continues. On failure the
// last observed status is returned together with ErrGenerationFailed so the
// caller can show the failure detail.
func (p *Poller) Poll(ctx context.Context, taskID string) (*TaskStatus, error) {
	p.mu.Lock()
	if p.state == StatePolling {
		p.mu.Unlock()
		return nil, ErrPollerBusy
	}
	p.state = StatePolling
	p.mu.Unlock()

	log := p.logger.With(slog.String("task_id", taskID))
	log.Debug("polling started",
		slog.Duration("interval", p.config.Interval),
		slog.Int("max_attempts", p.config.MaxAttempts))

	countdownDone := p.startCountdown(ctx)
	defer countdownDone()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			// Cancellation abandons the task on the client side entirely,
			// marker included. The server-side task keeps running to
			// completion untracked.
			p.clearMarker(log)
			p.setState(StateIdle)
			return nil, ctx.Err()
		case <-ticker.C:
		}

		status, err := p.fetcher.FetchStatus(ctx, taskID)
		if err != nil {
			// Transient by policy: a blip must not abandon a task the
			// server may still be working on.
			log.Debug("status fetch failed, continuing",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			continue
		}

		if p.config.OnAttempt != nil {
			p.config.OnAttempt(attempt, status)
		}

		switch status.Status {
		case "success":
			p.clearMarker(log)
			p.setState(StateDone)
			log.Debug("polling finished", slog.Int("attempts", attempt))
			return status, nil
		case "failed":
			p.clearMarker(log)
			p.setState(StateFailed)
			return status, fmt.Errorf("%w: %s", ErrGenerationFailed, status.Error)
		}
	}

	// The marker survives a timeout so a later resume can check whether
	// the task resolved after the client gave up.
	p.setState(StateTimedOut)
	log.Debug("polling timed out", slog.Int("attempts", p.config.MaxAttempts))
	return nil, ErrPollTimeout
}

// startCountdown runs the one-second countdown callback until the returned
// stop function is called or the context ends.
func (p *Poller) startCountdown(ctx context.Context) func() {
	if p.config.OnCountdown == nil {
		return func() {}
	}

	stopCh := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(stopCh) }) }

	go func() {
		remaining := p.config.CountdownSeconds
		p.config.OnCountdown(remaining)

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-ticker.C:
				if remaining > 0 {
					remaining--
				}
				p.config.OnCountdown(remaining)
			}
		}
	}()
	return stop
}

func (p *Poller) clearMarker(log *slog.Logger) {
	if p.marker == nil {
		return
	}
	if err := p.marker.Clear(); err != nil {
		log.Debug("failed to clear pending marker", slog.String("error", err.Error()))
	}
}

// ResumePending checks the marker store for an in-flight generation and, if
// one exists, resumes polling it. Returns ErrNoPendingTask when there is
// nothing to resume.
func (p *Poller) ResumePending(ctx context.Context) (*TaskStatus, error) {
	if p.marker == nil {
		return nil, ErrNoPendingTask
	}
	taskID, _, err := p.marker.Pending()
	if err != nil {
		return nil, err
	}
	return p.Poll(ctx, taskID)
}
