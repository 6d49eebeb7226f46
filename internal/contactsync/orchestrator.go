// Package contactsync pulls changed partners from Odoo into the local contact
// store on a schedule.
package contactsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"contactsync/internal/contactsync/metrics"
	"contactsync/internal/contactsync/models"
	"contactsync/internal/odoo"
)

var tracer = otel.Tracer("contactsync/contactsync")

// LockKey is the distributed lock name shared by every replica.
const LockKey = "contactsync:run"

const (
	defaultInterval   = time.Hour
	defaultRunTimeout = 10 * time.Minute
	finishTimeout     = 5 * time.Second
)

// Orchestrator owns the sync schedule. At most one run is active per process,
// and per deployment when a distributed locker is configured.
type Orchestrator struct {
	remote  RemoteClient
	tracker *Tracker

	creds        odoo.Credentials
	interval     time.Duration
	runTimeout   time.Duration
	runOnStartup bool
	policy       MalformedPolicy

	logger    *slog.Logger
	metrics   *metrics.Metrics
	recorder  RunRecorder
	publisher RunPublisher
	locker    DistributedLocker
	now       func() time.Time

	merger *Merger

	// guard is held for the whole of a run; TryLock drops overlapping ticks.
	guard sync.Mutex

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	loopDone chan struct{}

	// manual runs outlive the HTTP request that triggered them
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

type Option func(*Orchestrator)

func WithCredentials(creds odoo.Credentials) Option {
	return func(o *Orchestrator) {
		o.creds = creds
	}
}

func WithInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithRunTimeout bounds each run. It is also the distributed lock TTL.
func WithRunTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.runTimeout = d
		}
	}
}

func WithRunOnStartup(enabled bool) Option {
	return func(o *Orchestrator) {
		o.runOnStartup = enabled
	}
}

func WithMalformedPolicy(p MalformedPolicy) Option {
	return func(o *Orchestrator) {
		if p != "" {
			o.policy = p
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithRunRecorder(r RunRecorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

func WithPublisher(p RunPublisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

func WithDistributedLocker(l DistributedLocker) Option {
	return func(o *Orchestrator) {
		o.locker = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New constructs an Orchestrator. Nothing runs until Start, RunOnce or Trigger.
func New(remote RemoteClient, store ContactStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		remote:       remote,
		tracker:      NewTracker(store),
		interval:     defaultInterval,
		runTimeout:   defaultRunTimeout,
		runOnStartup: true,
		policy:       PolicyAbort,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.merger = NewMerger(store, o.policy, o.logger, o.metrics)
	o.bgCtx, o.bgCancel = context.WithCancel(context.Background())
	return o
}

// Start launches the schedule loop: one run immediately (unless disabled),
// then one per interval until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrStopped
	}
	if o.started {
		return ErrAlreadyStarted
	}
	o.started = true

	loopCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.loopDone = make(chan struct{})
	go o.loop(loopCtx, o.loopDone)

	o.logger.InfoContext(ctx, "sync scheduler started",
		"interval", o.interval.String(),
		"run_on_startup", o.runOnStartup,
		"malformed_policy", string(o.policy),
	)
	return nil
}

// Stop cancels the loop and any background run, then waits for them. Later
// Start and Trigger calls return ErrStopped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopped = true
	cancel, done := o.cancel, o.loopDone
	o.cancel = nil
	o.mu.Unlock()

	o.bgCancel()
	if cancel != nil {
		cancel()
		<-done
	}
	o.bg.Wait()
}

func (o *Orchestrator) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	if o.runOnStartup {
		o.scheduledRun(ctx, models.TriggerStartup)
	}

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("sync scheduler stopped")
			return
		case <-ticker.C:
			o.scheduledRun(ctx, models.TriggerSchedule)
		}
	}
}

// scheduledRun never propagates errors; the next tick is the retry.
func (o *Orchestrator) scheduledRun(ctx context.Context, trigger models.Trigger) {
	if _, err := o.RunOnce(ctx, trigger); errors.Is(err, ErrRunInProgress) {
		o.logger.InfoContext(ctx, "sync tick dropped, previous run still active",
			"trigger", string(trigger),
		)
	}
}

// RunOnce executes one run in the caller's goroutine. It returns
// ErrRunInProgress without contacting the remote if a run is already active.
func (o *Orchestrator) RunOnce(ctx context.Context, trigger models.Trigger) (*models.Run, error) {
	if !o.guard.TryLock() {
		o.metrics.ObserveRun(string(trigger), string(models.StatusSkipped), 0)
		return nil, ErrRunInProgress
	}
	defer o.guard.Unlock()
	return o.run(ctx, trigger)
}

// Trigger claims the run guard and executes the run in the background. The
// outcome lands in run history.
func (o *Orchestrator) Trigger(trigger models.Trigger) error {
	// bg.Add must not race the bg.Wait in Stop.
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrStopped
	}
	if !o.guard.TryLock() {
		o.metrics.ObserveRun(string(trigger), string(models.StatusSkipped), 0)
		return ErrRunInProgress
	}
	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		defer o.guard.Unlock()
		_, _ = o.run(o.bgCtx, trigger)
	}()
	return nil
}

func (o *Orchestrator) run(ctx context.Context, trigger models.Trigger) (*models.Run, error) {
	ctx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	run := &models.Run{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: o.now().UTC(),
	}
	ctx, span := tracer.Start(ctx, "contactsync.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("sync.run_id", run.ID),
		attribute.String("sync.trigger", string(trigger)),
	)
	logger := o.logger.With("run_id", run.ID, "trigger", string(trigger))

	if o.locker != nil {
		release, ok, err := o.locker.TryLock(ctx, LockKey, o.runTimeout)
		if err != nil {
			logger.WarnContext(ctx, "distributed lock unavailable", "error", err)
			return o.finish(ctx, logger, run, err)
		}
		if !ok {
			o.metrics.ObserveRun(string(trigger), string(models.StatusSkipped), 0)
			logger.InfoContext(ctx, "sync run skipped, lock held by another replica")
			return nil, ErrRunInProgress
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				logger.WarnContext(ctx, "failed to release distributed lock", "error", err)
			}
		}()
	}

	logger.InfoContext(ctx, "sync run started")
	err := o.execute(ctx, logger, run)
	return o.finish(ctx, logger, run, err)
}

func (o *Orchestrator) execute(ctx context.Context, logger *slog.Logger, run *models.Run) error {
	sess, err := o.remote.Authenticate(ctx, o.creds)
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "authenticated", "uid", sess.UID, "credentials", o.creds)

	before, err := o.tracker.Current(ctx)
	if err != nil {
		return err
	}
	run.WatermarkBefore = before

	partners, err := o.remote.FetchChangedSince(ctx, sess, before)
	if err != nil {
		return err
	}
	run.Fetched = len(partners)

	res, err := o.merger.Merge(ctx, partners)
	run.Processed = res.Processed
	run.Skipped = res.Skipped
	if err != nil {
		return err
	}

	after, err := o.tracker.Current(ctx)
	if err != nil {
		return err
	}
	run.WatermarkAfter = after
	o.metrics.SetWatermark(after)
	return nil
}

// finish stamps the outcome, records and publishes the run. Recording uses a
// context detached from the run timeout so a timed-out run is still recorded.
func (o *Orchestrator) finish(ctx context.Context, logger *slog.Logger, run *models.Run, runErr error) (*models.Run, error) {
	run.FinishedAt = o.now().UTC()
	span := trace.SpanFromContext(ctx)

	if runErr != nil {
		run.Status = models.StatusFailed
		run.Error = runErr.Error()
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "sync run failed")
		logger.ErrorContext(ctx, "sync run failed",
			"error", runErr,
			"fetched", run.Fetched,
			"processed", run.Processed,
			"skipped", run.Skipped,
			"duration_ms", run.Duration().Milliseconds(),
		)
	} else {
		run.Status = models.StatusSucceeded
		o.metrics.MarkSuccess(run.FinishedAt)
		logger.InfoContext(ctx, "sync run completed",
			"fetched", run.Fetched,
			"processed", run.Processed,
			"skipped", run.Skipped,
			"watermark", formatWatermark(run.WatermarkAfter),
			"duration_ms", run.Duration().Milliseconds(),
		)
	}
	span.SetAttributes(
		attribute.String("sync.status", string(run.Status)),
		attribute.Int("sync.processed", run.Processed),
	)
	o.metrics.ObserveRun(string(run.Trigger), string(run.Status), run.Duration())

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	if o.recorder != nil {
		if err := o.recorder.Record(finishCtx, run); err != nil {
			logger.ErrorContext(ctx, "failed to record sync run", "error", err)
		}
	}
	if o.publisher != nil {
		if err := o.publisher.Publish(finishCtx, run); err != nil {
			logger.WarnContext(ctx, "failed to publish sync run", "error", err)
		}
	}
	return run, runErr
}

func formatWatermark(wm *time.Time) string {
	if wm == nil {
		return ""
	}
	return wm.UTC().Format(time.RFC3339)
}
