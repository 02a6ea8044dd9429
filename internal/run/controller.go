// Package run owns the lifecycle of a single pipeline invocation.
//
// The Controller is driven from the Bubble Tea update loop: Submit returns
// a tea.Cmd that performs the call off the loop, and the resulting Finished
// message is handed back through Apply. Every submission carries a
// generation number; Apply drops any message whose generation is no longer
// current, so a late response can never overwrite a newer run or a reset.
package run

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/viral/internal/logging"
	"github.com/abelbrown/viral/internal/otel"
	"github.com/abelbrown/viral/internal/pipeline"
)

// ErrRunInFlight is returned by Submit and Restore while a run is active.
var ErrRunInFlight = errors.New("a run is already in progress")

// Runner performs one pipeline call. *pipeline.Client satisfies it.
type Runner interface {
	Run(ctx context.Context, req pipeline.RunRequest) (pipeline.RunResult, error)
}

// State is one of Idle, Running or Completed.
type State interface {
	state()
}

// Idle means no run is in flight. Err holds the message of the last
// failed run, if any.
type Idle struct {
	Err string
}

// Running means one request is in flight.
type Running struct {
	Gen     uint64
	Request pipeline.RunRequest
	Started time.Time
}

// Completed holds the result of the last successful run.
type Completed struct {
	Result pipeline.RunResult
}

func (Idle) state()      {}
func (Running) state()   {}
func (Completed) state() {}

// Finished is the message produced by the command Submit returns.
type Finished struct {
	Gen    uint64
	Result pipeline.RunResult
	Err    error
	Dur    time.Duration
}

// Controller holds the run state machine. It is not safe for concurrent
// use; all methods are called from the Update loop.
type Controller struct {
	runner Runner
	events *otel.Logger
	now    func() time.Time

	state  State
	gen    uint64
	cancel context.CancelFunc
}

// NewController creates a Controller in the Idle state. events may be nil.
func NewController(runner Runner, events *otel.Logger) *Controller {
	return &Controller{
		runner: runner,
		events: events,
		now:    time.Now,
		state:  Idle{},
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Gen returns the current generation.
func (c *Controller) Gen() uint64 {
	return c.gen
}

// Running reports whether a request is in flight.
func (c *Controller) Running() bool {
	_, ok := c.state.(Running)
	return ok
}

// Result returns the completed result, if any.
func (c *Controller) Result() (pipeline.RunResult, bool) {
	if done, ok := c.state.(Completed); ok {
		return done.Result, true
	}
	return pipeline.RunResult{}, false
}

// Err returns the user-visible error of the last failed run.
func (c *Controller) Err() string {
	if idle, ok := c.state.(Idle); ok {
		return idle.Err
	}
	return ""
}

// Submit starts a run. An invalid request is rejected with its
// *pipeline.ValidationError and leaves the state untouched, as does a
// submission while Running (ErrRunInFlight). Otherwise the previous result
// and error are cleared immediately and the returned command performs the
// call.
func (c *Controller) Submit(ctx context.Context, req pipeline.RunRequest) (tea.Cmd, error) {
	if r, ok := c.state.(Running); ok {
		c.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindRunReject, Comp: "run", Gen: r.Gen, Niche: req.Niche, Msg: "in flight"})
		return nil, ErrRunInFlight
	}
	if err := req.Validate(); err != nil {
		c.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindRunReject, Comp: "run", Niche: req.Niche, Err: err.Error()})
		return nil, err
	}

	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	started := c.now()
	c.state = Running{Gen: gen, Request: req, Started: started}

	c.events.Run(otel.KindRunSubmit, gen, req.Niche, 0, nil)
	logging.Info("run submitted", "gen", gen, "niche", req.Niche, "num_posts", req.NumPosts, "use_mock", req.UseMock)

	runner := c.runner
	return func() tea.Msg {
		result, err := runner.Run(ctx, req)
		return Finished{Gen: gen, Result: result, Err: err, Dur: time.Since(started)}
	}, nil
}

// Apply folds a Finished message into the state. Messages from an older
// generation, or arriving when no run is in flight, are ignored. It reports
// whether the message completed a run successfully.
func (c *Controller) Apply(msg Finished) bool {
	r, ok := c.state.(Running)
	if !ok || msg.Gen != c.gen {
		c.events.Run(otel.KindRunStale, msg.Gen, "", msg.Dur, nil)
		return false
	}
	c.release()

	if msg.Err != nil {
		c.state = Idle{Err: pipeline.UserMessage(msg.Err)}
		c.events.Run(otel.KindRunError, r.Gen, r.Request.Niche, msg.Dur, msg.Err)
		logging.Warn("run failed", "gen", r.Gen, "err", msg.Err)
		return false
	}

	c.state = Completed{Result: msg.Result}
	c.events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindRunComplete,
		Comp:  "run",
		Gen:   r.Gen,
		RunID: msg.Result.RunID,
		Niche: r.Request.Niche,
		Dur:   msg.Dur,
		Count: len(msg.Result.GeneratedPosts),
	})
	logging.Info("run completed", "gen", r.Gen, "analyses", len(msg.Result.Analyses), "posts", len(msg.Result.GeneratedPosts), "dur", msg.Dur)
	return true
}

// Reset returns to Idle with result and error cleared. An in-flight request
// is cancelled and its response will be discarded.
func (c *Controller) Reset() {
	c.release()
	c.gen++
	c.state = Idle{}
	c.events.Run(otel.KindRunReset, c.gen, "", 0, nil)
}

// Restore loads an archived result as if it had just completed.
func (c *Controller) Restore(result pipeline.RunResult) error {
	if c.Running() {
		return ErrRunInFlight
	}
	c.gen++
	c.state = Completed{Result: result}
	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRunRestore, Comp: "run", Gen: c.gen, RunID: result.RunID})
	return nil
}

func (c *Controller) release() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
