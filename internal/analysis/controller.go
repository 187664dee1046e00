// Package analysis drives the lifecycle of one receipt analysis: image
// intake, the single in-flight call to an analysis backend, the simulated
// progress indicator, and the terminal result or error.
package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hoorain17/Receipt-Analyzer/internal/analyzing"
)

// State is the controller's position in the analysis lifecycle
type State int

const (
	StateIdle State = iota
	StateImageReady
	StateAnalyzing
	StateComplete
	StateFailed
)

// String returns the wire name of a state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateImageReady:
		return "image_ready"
	case StateAnalyzing:
		return "analyzing"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress stages shown while a call is in flight. Stages 1-5 are cosmetic
// pacing decoupled from real backend progress; 0 is idle and 6 is done.
const (
	StageIdle = 0
	StageDone = 6
)

// progressMilestones are the fixed offsets at which the indicator advances
// to stages 2 through 5. Stage 1 starts immediately with the call.
var progressMilestones = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
	7500 * time.Millisecond,
}

var (
	// ErrNoImage is returned by Analyze when no receipt image is set
	ErrNoImage = errors.New("no receipt image selected")

	// ErrAnalysisInProgress is returned by Analyze while a call is already
	// in flight; the controller never queues concurrent requests
	ErrAnalysisInProgress = errors.New("analysis already in progress")
)

// Timer is a cancellable scheduled callback
type Timer interface {
	Stop() bool
}

// Scheduler schedules callbacks after a delay
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// defaultScheduler schedules with the real clock
type defaultScheduler struct{}

func (s *defaultScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewScheduler returns the real-clock scheduler
func NewScheduler() Scheduler {
	return &defaultScheduler{}
}

// Recorder persists completed analyses
type Recorder interface {
	SaveAnalysis(result *analyzing.Result, imagePNG []byte) (string, error)
}

// Snapshot is an immutable view of the controller's state. The Result
// pointer is shared and must be treated as read-only.
type Snapshot struct {
	State        State
	Stage        int
	HasImage     bool
	ImagePreview string
	Aggressive   bool
	Result       *analyzing.Result
	Err          string
}

// Controller owns the single current-result slot and funnels every mutation
// through its lifecycle transitions. All state is guarded by one mutex;
// timer callbacks and call resolution take the same lock, and a generation
// counter makes late arrivals for superseded requests inert.
type Controller struct {
	mu        sync.Mutex
	analyzer  analyzing.Analyzer
	recorder  Recorder
	scheduler Scheduler
	timeout   time.Duration

	state        State
	stage        int
	imagePNG     []byte
	imageBase64  string
	imagePreview string
	aggressive   bool
	result       *analyzing.Result
	errMsg       string

	generation uint64
	timers     []Timer
	cancelCall context.CancelFunc
}

// NewController creates a Controller with the real clock. The recorder may
// be nil, in which case completed analyses are not persisted.
func NewController(analyzer analyzing.Analyzer, recorder Recorder) *Controller {
	return NewControllerWithDeps(analyzer, recorder, &defaultScheduler{}, analyzing.DefaultTimeout)
}

// NewControllerWithDeps creates a Controller with custom dependencies for testing
func NewControllerWithDeps(analyzer analyzing.Analyzer, recorder Recorder, scheduler Scheduler, timeout time.Duration) *Controller {
	return &Controller{
		analyzer:  analyzer,
		recorder:  recorder,
		scheduler: scheduler,
		timeout:   timeout,
		state:     StateIdle,
	}
}

// SetImage stores a PNG-normalized receipt image as the pending payload and
// clears any prior result. Selecting a new image supersedes an in-flight
// call: its resolution will be ignored.
func (c *Controller) SetImage(imagePNG []byte) error {
	if len(imagePNG) == 0 {
		return ErrNoImage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.supersedeLocked()
	encoded := base64.StdEncoding.EncodeToString(imagePNG)
	c.imagePNG = imagePNG
	c.imageBase64 = encoded
	c.imagePreview = "data:image/png;base64," + encoded
	c.result = nil
	c.errMsg = ""
	c.stage = StageIdle
	c.state = StateImageReady
	return nil
}

// SetAggressive toggles aggressive preprocessing for the next analysis
func (c *Controller) SetAggressive(aggressive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aggressive = aggressive
}

// Analyze starts one analysis call for the pending image. It refuses to
// start without an image and refuses to overlap an in-flight call.
func (c *Controller) Analyze() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateAnalyzing {
		return ErrAnalysisInProgress
	}
	if c.imageBase64 == "" {
		return ErrNoImage
	}

	c.generation++
	gen := c.generation
	c.state = StateAnalyzing
	c.stage = 1
	c.result = nil
	c.errMsg = ""
	c.scheduleProgressLocked(gen)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancelCall = cancel

	go c.run(ctx, gen, c.imageBase64, c.imagePNG, c.aggressive)
	return nil
}

// Reset returns the controller to Idle unconditionally: image, preview,
// result, and error are cleared, pending timers cancelled, and any in-flight
// call aborted. Always safe to call.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.supersedeLocked()
	c.imagePNG = nil
	c.imageBase64 = ""
	c.imagePreview = ""
	c.result = nil
	c.errMsg = ""
	c.stage = StageIdle
	c.state = StateIdle
}

// Snapshot returns an immutable copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:        c.state,
		Stage:        c.stage,
		HasImage:     c.imageBase64 != "",
		ImagePreview: c.imagePreview,
		Aggressive:   c.aggressive,
		Result:       c.result,
		Err:          c.errMsg,
	}
}

// run performs the backend call off the caller's goroutine and applies the
// terminal transition under the lock
func (c *Controller) run(ctx context.Context, gen uint64, imageBase64 string, imagePNG []byte, aggressive bool) {
	result, err := c.analyzer.Analyze(ctx, imageBase64, aggressive)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		// The request was superseded by a reset or a new image; a late
		// resolution must not touch the current state
		slog.Debug("Ignoring stale analysis resolution", "generation", gen)
		return
	}

	c.cancelTimersLocked()
	c.cancelCall = nil

	if err != nil {
		c.state = StateFailed
		c.stage = StageIdle
		c.errMsg = err.Error()
		slog.Error("Analysis failed", "error", err)
		return
	}

	c.state = StateComplete
	c.stage = StageDone
	c.result = result
	slog.Info("Analysis complete",
		"items", len(result.Receipt.Items),
		"categories", len(result.SpendingAnalysis.CategoryBreakdown),
		"total", result.Receipt.Total,
	)

	if c.recorder != nil {
		if id, recErr := c.recorder.SaveAnalysis(result, imagePNG); recErr != nil {
			slog.Warn("Failed to record analysis", "error", recErr)
		} else {
			slog.Info("Analysis recorded", "id", id)
		}
	}
}

// scheduleProgressLocked arms the four cosmetic milestones for this
// generation. Each callback re-checks the generation and state under the
// lock, so a cancelled or completed analysis never sees a stale update.
func (c *Controller) scheduleProgressLocked(gen uint64) {
	for i, offset := range progressMilestones {
		stage := i + 2
		timer := c.scheduler.AfterFunc(offset, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.generation != gen || c.state != StateAnalyzing {
				return
			}
			c.stage = stage
		})
		c.timers = append(c.timers, timer)
	}
}

// cancelTimersLocked stops all pending progress timers. Idempotent.
func (c *Controller) cancelTimersLocked() {
	for _, timer := range c.timers {
		timer.Stop()
	}
	c.timers = nil
}

// supersedeLocked invalidates any in-flight request: timers stop, the call
// context is cancelled, and the generation moves on so a late resolution is
// ignored even when the transport cannot abort
func (c *Controller) supersedeLocked() {
	c.cancelTimersLocked()
	if c.cancelCall != nil {
		c.cancelCall()
		c.cancelCall = nil
	}
	c.generation++
}
