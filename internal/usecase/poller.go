package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/ports"
	"ElectionWatcher/internal/site"
)

// SiteBinding pairs a configured site with the adapter that reads it.
type SiteBinding struct {
	Target  site.Target
	Adapter site.Adapter
}

// PollerDeps wires the collaborators of the change detector.
type PollerDeps struct {
	Sites      []SiteBinding
	Dispatcher *Dispatcher
	Confirmer  ports.Confirmer
	Observer   ports.CycleObserver
	Logger     *slog.Logger
}

// Poller runs poll cycles and dispatches every region it has not seen yet.
// The seen sets live only in memory and are rebuilt on restart.
type Poller struct {
	sites      []SiteBinding
	dispatcher *Dispatcher
	confirmer  ports.Confirmer
	observer   ports.CycleObserver
	logger     *slog.Logger

	mu   sync.Mutex
	seen map[string]map[string]struct{}
}

// NewPoller constructs the change detector.
func NewPoller(deps PollerDeps) *Poller {
	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	seen := make(map[string]map[string]struct{}, len(deps.Sites))
	for _, s := range deps.Sites {
		seen[s.Target.Name] = map[string]struct{}{}
	}
	return &Poller{
		sites:      deps.Sites,
		dispatcher: deps.Dispatcher,
		confirmer:  deps.Confirmer,
		observer:   observer,
		logger:     deps.Logger,
		seen:       seen,
	}
}

// RunCycle polls every site once. Site failures are logged and joined into
// the returned error; they never stop the remaining sites.
func (p *Poller) RunCycle(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, binding := range p.sites {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		err := p.pollSite(ctx, binding)
		p.observer.CycleFinished(binding.Target.Name, err)
		if err != nil {
			p.logError("poll cycle failed", "site", binding.Target.Name, "error", err)
			errs = append(errs, fmt.Errorf("site %s: %w", binding.Target.Name, err))
		}
	}

	return errors.Join(errs...)
}

// SeenCount reports how many regions of a site have been handled.
func (p *Poller) SeenCount(siteName string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen[siteName])
}

func (p *Poller) pollSite(ctx context.Context, binding SiteBinding) error {
	target := binding.Target

	regions, err := binding.Adapter.ListRegions(ctx, target)
	if err != nil {
		return fmt.Errorf("list regions: %w", err)
	}

	fresh := p.unseen(target.Name, regions)
	p.debug("regions listed", "site", target.Name, "total", len(regions), "new", len(fresh))

	var failed, dispatched int
	for _, region := range fresh {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := p.handleRegion(ctx, target, binding.Adapter, region)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			failed++
			p.warn("region left for next cycle", "site", target.Name, "region", region.Name, "error", err)
			continue
		}
		if ok {
			dispatched++
		}
	}

	if len(fresh) > 0 {
		p.info("cycle finished", "site", target.Name, "new", len(fresh), "dispatched", dispatched, "failed", failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d new regions failed", failed, len(fresh))
	}
	return nil
}

// handleRegion extracts, confirms and dispatches one region. A returned error
// leaves the region unseen so the next cycle retries it.
func (p *Poller) handleRegion(ctx context.Context, target site.Target, adapter site.Adapter, region domain.Region) (bool, error) {
	extraction, err := adapter.Extract(ctx, target, region)
	if err != nil {
		return false, fmt.Errorf("extract: %w", err)
	}
	p.observer.FieldWarnings(target.Name, len(extraction.Warnings))
	record := extraction.Record

	if p.confirmer != nil {
		accepted, err := p.confirmer.Confirm(ctx, record.RegionName, record)
		if err != nil {
			return false, fmt.Errorf("confirm: %w", err)
		}
		if !accepted {
			p.markSeen(target.Name, region.Key)
			p.info("dispatch declined", "site", target.Name, "region", record.RegionName)
			if p.dispatcher != nil {
				if err := p.dispatcher.RecordDeclined(ctx, target, record); err != nil {
					p.warn("history write failed", "site", target.Name, "region", record.RegionName, "error", err)
				}
			}
			return false, nil
		}
	}

	if p.dispatcher == nil {
		p.markSeen(target.Name, region.Key)
		return false, nil
	}

	outcome, err := p.dispatcher.Dispatch(ctx, target, record)
	if err != nil {
		stage := StageWrite
		var dispatchErr *domain.DispatchError
		if errors.As(err, &dispatchErr) {
			stage = dispatchErr.Stage
		}
		p.observer.DispatchFailed(target.Name, stage)
		return false, err
	}
	p.markSeen(target.Name, region.Key)

	for _, f := range outcome.Failures {
		p.observer.DispatchFailed(target.Name, f.Stage)
	}
	p.observer.RegionDispatched(target.Name)
	p.info("region dispatched", "site", target.Name, "region", record.RegionName, "artifact", outcome.ArtifactPath, "notified", outcome.Notified)
	return true, nil
}

// unseen filters regions to those not handled yet, keeping first occurrences.
func (p *Poller) unseen(siteName string, regions []domain.Region) []domain.Region {
	seen := p.seen[siteName]
	listed := make(map[string]struct{}, len(regions))
	fresh := make([]domain.Region, 0, len(regions))
	for _, r := range regions {
		if _, ok := seen[r.Key]; ok {
			continue
		}
		if _, ok := listed[r.Key]; ok {
			continue
		}
		listed[r.Key] = struct{}{}
		fresh = append(fresh, r)
	}
	return fresh
}

func (p *Poller) markSeen(siteName, key string) {
	set, ok := p.seen[siteName]
	if !ok {
		set = map[string]struct{}{}
		p.seen[siteName] = set
	}
	set[key] = struct{}{}
}

func (p *Poller) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Poller) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Poller) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Poller) logError(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}

type noopObserver struct{}

func (noopObserver) CycleFinished(string, error)   {}
func (noopObserver) RegionDispatched(string)       {}
func (noopObserver) DispatchFailed(string, string) {}
func (noopObserver) FieldWarnings(string, int)     {}
