package services

import (
	"context"
	"sync"
	"time"

	"github.com/mashcatg/visa-cracked/internal/models"

	"go.uber.org/zap"
)

// ReportLoader loads one consistent session+report view.
type ReportLoader interface {
	Load(ctx context.Context, sessionID string) (*ReportView, error)
}

// AnalysisDispatcher re-invokes analysis for the regenerate path.
type AnalysisDispatcher interface {
	Analyze(ctx context.Context, sessionID string) (*models.InterviewReport, error)
}

// Poller presents a possibly-incomplete report as it fills in. It re-reads
// the store on a fixed interval from a fixed reference start time, stops as
// soon as the report is complete, and gives up after the ceiling elapses,
// at which point the viewer is offered a manual regenerate.
//
// One Poller instance serves one viewer of one session. A regenerate
// request supersedes the running poll cycle rather than stacking a second
// one; the poller never auto-retries analysis on its own.
//
// Like the callsession client, this runs in the viewing process, not in a
// request handler: the report page constructs one on mount, feeds onUpdate
// into its rendering, and calls Stop on unmount.
type Poller struct {
	log      *zap.Logger
	reports  ReportLoader
	analyzer AnalysisDispatcher
	interval time.Duration
	ceiling  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	failed bool
	wg     sync.WaitGroup
}

func NewPoller(log *zap.Logger, reports ReportLoader, analyzer AnalysisDispatcher, interval, ceiling time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if ceiling <= 0 {
		ceiling = 120 * time.Second
	}
	return &Poller{
		log:      log,
		reports:  reports,
		analyzer: analyzer,
		interval: interval,
		ceiling:  ceiling,
	}
}

// Start performs the initial load and, when needed, begins polling. The
// onUpdate callback receives every view read, including the first. For a
// failed session the terminal view is delivered immediately and no polling
// starts. Returns the first view so callers can render synchronously.
func (p *Poller) Start(ctx context.Context, sessionID string, onUpdate func(*ReportView)) (*ReportView, error) {
	view, err := p.reports.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if onUpdate != nil {
		onUpdate(view)
	}

	if view.Session.Status == models.SessionStatusFailed {
		return view, nil
	}
	if view.Complete {
		return view, nil
	}

	p.beginCycle(ctx, sessionID, onUpdate)
	return view, nil
}

// Regenerate supersedes any running poll cycle, re-dispatches analysis, and
// restarts the polling clock at a fresh t=0. User-triggered only.
func (p *Poller) Regenerate(ctx context.Context, sessionID string, onUpdate func(*ReportView)) error {
	p.stopCycle()

	if _, err := p.analyzer.Analyze(ctx, sessionID); err != nil {
		return err
	}

	p.beginCycle(ctx, sessionID, onUpdate)
	return nil
}

// AnalysisFailed reports whether the last poll cycle exhausted its ceiling
// without seeing a complete report.
func (p *Poller) AnalysisFailed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

// Stop tears the polling loop down deterministically. Called on unmount or
// navigation; an outstanding analysis invocation is not cancelled.
func (p *Poller) Stop() {
	p.stopCycle()
	p.wg.Wait()
}

func (p *Poller) beginCycle(ctx context.Context, sessionID string, onUpdate func(*ReportView)) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.failed = false
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop(cycleCtx, sessionID, onUpdate, time.Now())
}

func (p *Poller) stopCycle() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
}

func (p *Poller) loop(ctx context.Context, sessionID string, onUpdate func(*ReportView), started time.Time) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			view, err := p.reports.Load(ctx, sessionID)
			if err != nil {
				p.log.Warn("Report poll read failed",
					zap.String("session_id", sessionID),
					zap.Error(err),
				)
			} else {
				if onUpdate != nil {
					onUpdate(view)
				}
				if view.Complete {
					return
				}
			}
			// The ceiling bounds the cycle even when reads keep failing.
			if time.Since(started) > p.ceiling {
				p.log.Warn("Analysis did not complete within the polling ceiling",
					zap.String("session_id", sessionID),
					zap.Duration("ceiling", p.ceiling),
				)
				p.mu.Lock()
				p.failed = true
				p.mu.Unlock()
				return
			}
		}
	}
}
