package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/ports"
	"ElectionWatcher/internal/site"
)

// Dispatch stages reported in Outcome failures and metrics.
const (
	StageWrite     = "write"
	StageNotify    = "notify"
	StageTranslate = "translate"
	StageRender    = "render"
	StageImage     = "image"
	StagePublish   = "publish"
	StageHistory   = "history"
)

// Mention identifies who is pinged in announcements.
type Mention struct {
	// Kind is "role" or "user".
	Kind string
	ID   string
}

// DispatcherDeps wires the outbound collaborators of a dispatch. Everything
// except OutputDir is optional.
type DispatcherDeps struct {
	OutputDir  string
	Mention    Mention
	Notifier   ports.Notifier
	Renderer   ports.Renderer
	Translator ports.Translator
	Publisher  ports.RecordPublisher
	History    ports.DispatchRepository
	Logger     *slog.Logger
	Now        func() time.Time
}

// Dispatcher writes a record's artifact and hands it to the outbound channels.
type Dispatcher struct {
	outputDir  string
	mention    Mention
	notifier   ports.Notifier
	renderer   ports.Renderer
	translator ports.Translator
	publisher  ports.RecordPublisher
	history    ports.DispatchRepository
	logger     *slog.Logger
	now        func() time.Time
}

// StepFailure is a non-fatal failure of one dispatch stage.
type StepFailure struct {
	Stage string
	Err   error
}

// Outcome summarizes what happened to one dispatched record.
type Outcome struct {
	ArtifactPath string
	ImagePath    string
	Notified     bool
	Failures     []StepFailure
}

// Err joins the step failures, nil when every stage succeeded.
func (o Outcome) Err() error {
	errs := make([]error, 0, len(o.Failures))
	for _, f := range o.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Stage, f.Err))
	}
	return errors.Join(errs...)
}

func (o *Outcome) fail(stage string, err error) {
	o.Failures = append(o.Failures, StepFailure{Stage: stage, Err: err})
}

// NewDispatcher constructs the dispatch component.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		outputDir:  deps.OutputDir,
		mention:    deps.Mention,
		notifier:   deps.Notifier,
		renderer:   deps.Renderer,
		translator: deps.Translator,
		publisher:  deps.Publisher,
		history:    deps.History,
		logger:     deps.Logger,
		now:        now,
	}
}

// Dispatch writes <outputDir>/<region>_results.json and announces it. Only a
// failure to produce the artifact is returned as an error; every later stage
// is logged, recorded in the Outcome and never retried.
func (d *Dispatcher) Dispatch(ctx context.Context, target site.Target, record domain.Record) (Outcome, error) {
	var outcome Outcome

	if err := record.Validate(); err != nil {
		return outcome, &domain.DispatchError{Region: record.RegionName, Stage: "validate", Err: err}
	}

	payload, err := record.Artifact()
	if err != nil {
		return outcome, &domain.DispatchError{Region: record.RegionName, Stage: "serialize", Err: err}
	}

	path := filepath.Join(d.outputDir, ArtifactFileName(record.RegionName))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return outcome, &domain.DispatchError{Region: record.RegionName, Stage: StageWrite, Err: err}
	}
	outcome.ArtifactPath = path
	d.debug("artifact written", "site", target.Name, "region", record.RegionName, "path", path)

	status := domain.StatusWritten
	if d.notifier != nil {
		msg := ports.Message{
			Content:    FormatAnnouncement(d.mention, sourceLabel(target), record.RegionName),
			Attachment: &ports.Attachment{Name: filepath.Base(path), Path: path},
		}
		if err := d.notifier.Notify(ctx, msg); err != nil {
			outcome.fail(StageNotify, err)
			status = domain.StatusNotifyFailed
			d.warn("notify failed", "site", target.Name, "region", record.RegionName, "error", err)
		} else {
			outcome.Notified = true
			status = domain.StatusDelivered
		}
	}

	if d.renderer != nil {
		d.renderImage(ctx, target, record, &outcome)
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, target.Name, record); err != nil {
			outcome.fail(StagePublish, err)
			d.warn("publish failed", "site", target.Name, "region", record.RegionName, "error", err)
		}
	}

	if d.history != nil {
		entry := domain.DispatchEntry{
			Site:      target.Name,
			Region:    record.RegionName,
			Payload:   string(payload),
			Status:    status,
			CreatedAt: d.now().UTC(),
		}
		if notifyErr := firstFailure(outcome, StageNotify); notifyErr != nil {
			entry.Error = notifyErr.Error()
		}
		if err := d.history.SaveDispatch(ctx, entry); err != nil {
			outcome.fail(StageHistory, err)
			d.warn("history write failed", "site", target.Name, "region", record.RegionName, "error", err)
		}
	}

	return outcome, nil
}

// RecordDeclined stores an operator decline in the history, if configured.
func (d *Dispatcher) RecordDeclined(ctx context.Context, target site.Target, record domain.Record) error {
	if d.history == nil {
		return nil
	}
	payload, err := record.Artifact()
	if err != nil {
		return fmt.Errorf("serialize declined record: %w", err)
	}
	return d.history.SaveDispatch(ctx, domain.DispatchEntry{
		Site:      target.Name,
		Region:    record.RegionName,
		Payload:   string(payload),
		Status:    domain.StatusDeclined,
		CreatedAt: d.now().UTC(),
	})
}

func (d *Dispatcher) renderImage(ctx context.Context, target site.Target, record domain.Record, outcome *Outcome) {
	district := record.RegionName
	if d.translator != nil {
		translated, err := d.translator.Translate(ctx, district)
		if err != nil {
			outcome.fail(StageTranslate, err)
			d.warn("translate failed, rendering original name", "region", district, "error", err)
		} else if translated != "" {
			district = translated
		}
	}

	image, err := d.renderer.Render(ctx, ports.RenderRequest{
		District:     district,
		Record:       record,
		ArtifactPath: outcome.ArtifactPath,
	})
	if err != nil {
		outcome.fail(StageRender, err)
		d.warn("render failed", "site", target.Name, "region", record.RegionName, "error", err)
		return
	}
	outcome.ImagePath = image

	if d.notifier == nil {
		return
	}
	err = d.notifier.Notify(ctx, ports.Message{
		Attachment: &ports.Attachment{Name: filepath.Base(image), Path: image},
	})
	if err != nil {
		outcome.fail(StageImage, err)
		d.warn("image notify failed", "site", target.Name, "region", record.RegionName, "error", err)
	}
}

// FormatAnnouncement builds the message sent alongside the artifact.
func FormatAnnouncement(mention Mention, label, region string) string {
	text := fmt.Sprintf("election results scraped from **%s** **%s**.", label, region)
	if mention.ID == "" {
		return text
	}
	if mention.Kind == "user" {
		return fmt.Sprintf("<@%s> %s", mention.ID, text)
	}
	return fmt.Sprintf("<@&%s> %s", mention.ID, text)
}

// ArtifactFileName returns the file name used for a region's artifact.
func ArtifactFileName(region string) string {
	return sanitizeFileStem(region) + "_results.json"
}

func sanitizeFileStem(name string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return '_'
		case strings.ContainsRune(`<>:"/\|?*`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	stem = strings.Trim(stem, ". ")
	if stem == "" {
		return "region"
	}
	return stem
}

func sourceLabel(target site.Target) string {
	if target.Label != "" {
		return target.Label
	}
	return target.Name
}

func firstFailure(outcome Outcome, stage string) error {
	for _, f := range outcome.Failures {
		if f.Stage == stage {
			return f.Err
		}
	}
	return nil
}

func (d *Dispatcher) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}

func (d *Dispatcher) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
