package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"hemolens/internal/api"
)

// Submitter submits one frame through the prediction pipeline, local or
// remote.
type Submitter interface {
	Predict(ctx context.Context, frame []byte, filename string) (api.PredictResponse, error)
}

// FrameSource produces the next frame to submit. Capture hardware is out of
// scope; sources wrap files, directories, or test fixtures.
type FrameSource interface {
	Frame() ([]byte, error)
}

// State of a real-time session.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateStopped
)

// Options tune a session.
type Options struct {
	Period     time.Duration // capture tick period
	Timeout    time.Duration // per-submission bound; expiry counts as a rejected frame
	WindowSize int
}

// DefaultOptions returns the contract values: 1.5s ticks, 30s submission
// timeout, a five-reading window.
func DefaultOptions() Options {
	return Options{
		Period:     1500 * time.Millisecond,
		Timeout:    30 * time.Second,
		WindowSize: WindowSize,
	}
}

// Display is the rendered aggregate state of a session.
type Display struct {
	Average     float64
	History     []Reading
	Frames      int // frames submitted, including rejected ones
	Accepted    int
	Rejected    int
	Degraded    bool // last submission could not reach the pipeline
	LastStatus  string
	LastMessage string
	LastColor   string
}

// Session runs the timer-driven capture loop. A new submission is only
// issued when the previous one has completed (in-flight guard); a missed
// tick is skipped, not queued.
type Session struct {
	src FrameSource
	sub Submitter
	opt Options

	inFlight atomic.Bool

	mu       sync.Mutex
	state    State
	window   *Window
	frames   int
	accepted int
	rejected int
	degraded bool
	last     api.PredictResponse
}

// NewSession builds an idle session.
func NewSession(src FrameSource, sub Submitter, opt Options) *Session {
	if opt.Period <= 0 {
		opt.Period = DefaultOptions().Period
	}
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultOptions().Timeout
	}
	return &Session{
		src:    src,
		sub:    sub,
		opt:    opt,
		window: NewWindow(opt.WindowSize),
	}
}

// Run ticks until ctx is cancelled. Stopping drops any in-flight result on
// arrival without updating state, and clears the window on exit.
func (s *Session) Run(ctx context.Context) {
	s.mu.Lock()
	s.state = StateCapturing
	s.mu.Unlock()

	ticker := time.NewTicker(s.opt.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.state = StateStopped
			s.window.Clear()
			s.mu.Unlock()
			return
		case <-ticker.C:
			if !s.inFlight.CompareAndSwap(false, true) {
				continue // previous submission still running; skip this tick
			}
			go func() {
				defer s.inFlight.Store(false)
				s.submitOnce(ctx)
			}()
		}
	}
}

// submitOnce captures one frame and folds the result into the display
// state. Results arriving after cancellation are dropped.
func (s *Session) submitOnce(ctx context.Context) {
	frame, err := s.src.Frame()
	if err != nil {
		s.mu.Lock()
		s.frames++
		s.rejected++
		s.mu.Unlock()
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opt.Timeout)
	defer cancel()

	resp, err := s.sub.Predict(callCtx, frame, "frame.jpg")

	if ctx.Err() != nil {
		return // session stopped while in flight; drop the result
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++

	if err != nil {
		// Unreachable pipeline or timeout: a rejected frame, no retry — the
		// next tick retries naturally.
		s.rejected++
		s.degraded = true
		return
	}
	s.degraded = false

	if resp.Status != api.StatusOK || resp.HemoglobinEstimate == nil {
		s.rejected++
		return
	}

	s.accepted++
	s.last = resp
	s.window.Push(Reading{
		GramsPerDL: *resp.HemoglobinEstimate,
		Status:     resp.HealthStatus,
		At:         time.Now(),
	})
}

// State returns the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Display returns the current aggregate state.
func (s *Session) Display() Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Display{
		Average:     s.window.Mean(),
		History:     s.window.Snapshot(),
		Frames:      s.frames,
		Accepted:    s.accepted,
		Rejected:    s.rejected,
		Degraded:    s.degraded,
		LastStatus:  s.last.HealthStatus,
		LastMessage: s.last.HealthMessage,
		LastColor:   s.last.HealthColor,
	}
}
