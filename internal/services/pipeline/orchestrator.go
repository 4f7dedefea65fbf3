package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// State is the orchestrator's position in one monitoring cycle
type State string

const (
	StateIdle          State = "idle"
	StateDetecting     State = "detecting"
	StateFetching      State = "fetching"
	StateProcessing    State = "processing"
	StateConsolidating State = "consolidating"
	StatePersisting    State = "persisting"
	StateNotifyCheck   State = "notify_check"
)

// lastQuarterKey is the key-value entry holding the last detected
// quarter label
const lastQuarterKey = "last_detected_quarter"

// QuarterDetector reports the quarter the disclosures page currently shows
type QuarterDetector interface {
	DetectQuarter(ctx context.Context, pageURL string) (models.QuarterLabel, error)
}

// DocumentFetcher materializes the quarter's documents
type DocumentFetcher interface {
	Fetch(ctx context.Context, quarter models.QuarterLabel) ([]models.SourceDocument, error)
}

// DocumentSummarizer processes one document into a result
type DocumentSummarizer interface {
	Summarize(ctx context.Context, doc models.SourceDocument) models.ProcessingResult
}

// Consolidator merges the run's summaries
type Consolidator interface {
	Consolidate(ctx context.Context, quarter models.QuarterLabel, results []models.ProcessingResult) string
}

// ReportGenerator renders the run's PDF report
type ReportGenerator interface {
	Generate(run *models.QuarterRun) (string, error)
}

// Packager builds the quarter's document archive
type Packager interface {
	Package(run *models.QuarterRun) (string, error)
}

// Notifier fans the run out to subscribers, at most once per artifact
type Notifier interface {
	MaybeNotify(ctx context.Context, run *models.QuarterRun) (int, error)
}

// Orchestrator drives one monitoring cycle through its states. A cycle
// that detects no quarter change runs no pipeline stages, but still
// offers the latest persisted run to the notifier so an undelivered
// artifact is retried. Once the fetch stage is entered, the cycle
// always ends with a persisted run, even when every document failed.
type Orchestrator struct {
	detector     QuarterDetector
	fetcher      DocumentFetcher
	summarizer   DocumentSummarizer
	consolidator Consolidator
	report       ReportGenerator
	packager     Packager
	notifier     Notifier
	kv           interfaces.KeyValueStorage
	runs         interfaces.RunStorage
	pageURL      string
	logger       arbor.ILogger

	mu    sync.Mutex
	state State
}

// Options carries the orchestrator's collaborators. Report, packager,
// and notifier are optional; a nil entry disables that stage.
type Options struct {
	Detector     QuarterDetector
	Fetcher      DocumentFetcher
	Summarizer   DocumentSummarizer
	Consolidator Consolidator
	Report       ReportGenerator
	Packager     Packager
	Notifier     Notifier
	KeyValue     interfaces.KeyValueStorage
	Runs         interfaces.RunStorage
	PageURL      string
	Logger       arbor.ILogger
}

func NewOrchestrator(opts Options) *Orchestrator {
	return &Orchestrator{
		detector:     opts.Detector,
		fetcher:      opts.Fetcher,
		summarizer:   opts.Summarizer,
		consolidator: opts.Consolidator,
		report:       opts.Report,
		packager:     opts.Packager,
		notifier:     opts.Notifier,
		kv:           opts.KeyValue,
		runs:         opts.Runs,
		pageURL:      opts.PageURL,
		logger:       opts.Logger,
		state:        StateIdle,
	}
}

// State returns the current cycle state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(state State) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()

	o.logger.Debug().Str("state", string(state)).Msg("Cycle state changed")
}

// RunCycle executes one monitoring cycle. The returned error reports
// infrastructure failures only; a cycle with no quarter change, or one
// whose documents all failed, completes without error.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	defer o.setState(StateIdle)

	o.setState(StateDetecting)
	quarter, err := o.detector.DetectQuarter(ctx, o.pageURL)
	if err != nil {
		if errors.Is(err, models.ErrNoQuarterDetected) {
			// The page gave no usable answer; never treated as a change
			o.logger.Info().Msg("No quarter label detected, cycle ends")
			o.reofferLatest(ctx)
			return nil
		}
		return fmt.Errorf("quarter detection failed: %w", err)
	}

	last, err := o.kv.Get(ctx, lastQuarterKey)
	if err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		return fmt.Errorf("failed to read last detected quarter: %w", err)
	}
	if last == quarter.String() {
		o.logger.Info().
			Str("quarter", quarter.String()).
			Msg("Quarter unchanged, cycle ends")
		o.reofferLatest(ctx)
		return nil
	}

	o.logger.Info().
		Str("quarter", quarter.String()).
		Str("previous", last).
		Msg("New quarter detected")

	// The marker is advanced on entering the fetch stage, not on cycle
	// completion. A crash mid-cycle therefore skips the quarter rather
	// than reprocessing it forever.
	o.setState(StateFetching)
	if err := o.kv.Set(ctx, lastQuarterKey, quarter.String(), "last quarter seen on the disclosures page"); err != nil {
		return fmt.Errorf("failed to record detected quarter: %w", err)
	}

	run := models.NewQuarterRun(quarter)

	documents, err := o.fetcher.Fetch(ctx, quarter)
	if err != nil {
		// The marker is already advanced; persist the failed run
		o.logger.Error().
			Err(err).
			Str("quarter", quarter.String()).
			Msg("Quarter fetch failed")
	}

	if len(documents) > 0 {
		o.setState(StateProcessing)
		for _, doc := range documents {
			run.Results = append(run.Results, o.summarizer.Summarize(ctx, doc))
		}

		o.setState(StateConsolidating)
		run.Consolidated = o.consolidator.Consolidate(ctx, quarter, run.Results)
	}

	o.setState(StatePersisting)
	run.Finalize()
	o.attachArtifacts(run)

	if err := o.runs.Append(ctx, run); err != nil {
		return fmt.Errorf("failed to persist run for %s: %w", quarter, err)
	}

	o.logger.Info().
		Str("quarter", quarter.String()).
		Str("status", string(run.Status)).
		Int("documents", len(run.Results)).
		Int("succeeded", len(run.SuccessfulResults())).
		Msg("Run persisted")

	o.setState(StateNotifyCheck)
	o.offerToNotifier(ctx, run)

	return nil
}

// offerToNotifier hands a persisted run to the notifier. The notifier
// owns the gate: empty consolidated output and already-delivered
// artifacts are declined there. Delivery problems never fail the cycle;
// the run is already durable.
func (o *Orchestrator) offerToNotifier(ctx context.Context, run *models.QuarterRun) {
	if o.notifier == nil {
		return
	}
	if _, err := o.notifier.MaybeNotify(ctx, run); err != nil {
		o.logger.Error().
			Err(err).
			Str("quarter", run.Quarter.String()).
			Msg("Notification fan-out failed")
	}
}

// reofferLatest offers the most recent persisted run to the notifier on
// cycles that short-circuit before the pipeline stages. The ledger's
// artifact compare makes this idempotent, so a run whose fan-out failed
// after persisting is retried on a later cycle instead of stranding
// undelivered.
func (o *Orchestrator) reofferLatest(ctx context.Context) {
	if o.notifier == nil {
		return
	}

	run, err := o.runs.GetLatest(ctx)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			o.logger.Error().Err(err).Msg("Failed to load latest run for delivery check")
		}
		return
	}

	o.setState(StateNotifyCheck)
	o.offerToNotifier(ctx, run)
}

// attachArtifacts generates the report and package for runs that
// produced output. Both are best effort.
func (o *Orchestrator) attachArtifacts(run *models.QuarterRun) {
	if len(run.SuccessfulResults()) == 0 {
		return
	}

	if o.report != nil {
		path, err := o.report.Generate(run)
		if err != nil {
			o.logger.Warn().
				Err(err).
				Str("quarter", run.Quarter.String()).
				Msg("Report generation failed")
		} else {
			run.ReportPath = path
		}
	}

	if o.packager != nil {
		path, err := o.packager.Package(run)
		if err != nil {
			o.logger.Warn().
				Err(err).
				Str("quarter", run.Quarter.String()).
				Msg("Quarter packaging failed")
		} else {
			run.PackagePath = path
		}
	}
}
