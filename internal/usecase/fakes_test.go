package usecase

import (
	"context"
	"errors"
	"os"
	"sync"

	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/ports"
	"ElectionWatcher/internal/site"
)

type sentMessage struct {
	msg  ports.Message
	body string
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentMessage
	failOn func(call int, msg ports.Message) error
}

func (f *fakeNotifier) Notify(_ context.Context, msg ports.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := len(f.sent)
	sent := sentMessage{msg: msg}
	if msg.Attachment != nil {
		if raw, err := os.ReadFile(msg.Attachment.Path); err == nil {
			sent.body = string(raw)
		}
	}
	f.sent = append(f.sent, sent)

	if f.failOn != nil {
		return f.failOn(call, msg)
	}
	return nil
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeRenderer struct {
	requests []ports.RenderRequest
	image    string
	err      error
}

func (f *fakeRenderer) Render(_ context.Context, req ports.RenderRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.image, nil
}

type fakeTranslator struct {
	out string
	err error
}

func (f fakeTranslator) Translate(context.Context, string) (string, error) {
	return f.out, f.err
}

type fakePublisher struct {
	published []domain.Record
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, _ string, record domain.Record) error {
	f.published = append(f.published, record)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

type fakeHistory struct {
	entries []domain.DispatchEntry
}

func (f *fakeHistory) SaveDispatch(_ context.Context, entry domain.DispatchEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistory) ListDispatches(context.Context, string, uint64) ([]domain.DispatchEntry, error) {
	return f.entries, nil
}

// fakeAdapter serves a mutable list of regions; extractErr fails a region
// by name while the counter for it is positive.
type fakeAdapter struct {
	mu         sync.Mutex
	regions    []domain.Region
	listErr    error
	extractErr map[string]int
	extracted  []string
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) setRegions(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regions = f.regions[:0]
	for _, n := range names {
		f.regions = append(f.regions, domain.Region{Key: n, Name: n})
	}
}

func (f *fakeAdapter) ListRegions(context.Context, site.Target) ([]domain.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Region(nil), f.regions...), nil
}

func (f *fakeAdapter) Extract(_ context.Context, _ site.Target, region domain.Region) (domain.Extraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extracted = append(f.extracted, region.Name)
	if f.extractErr[region.Name] > 0 {
		f.extractErr[region.Name]--
		return domain.Extraction{}, &domain.FetchError{URL: region.URL, StatusCode: 503}
	}
	record := domain.NewRecord(region.Name)
	record.NPP = domain.Votes(int64(len(region.Name)) * 1000)
	return domain.Extraction{
		Record:   record,
		Warnings: []domain.FieldWarning{{Section: "results", Item: "XYZ", Reason: "unknown party"}},
	}, nil
}

type fakeConfirmer struct {
	answers map[string]bool
	asked   []string
	err     error
}

func (f *fakeConfirmer) Confirm(_ context.Context, region string, _ domain.Record) (bool, error) {
	f.asked = append(f.asked, region)
	if f.err != nil {
		return false, f.err
	}
	return f.answers[region], nil
}

type recordingObserver struct {
	mu         sync.Mutex
	cycles     map[string]int
	cycleErrs  map[string]int
	dispatched map[string]int
	failures   map[string]int
	warnings   map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		cycles:     map[string]int{},
		cycleErrs:  map[string]int{},
		dispatched: map[string]int{},
		failures:   map[string]int{},
		warnings:   map[string]int{},
	}
}

func (o *recordingObserver) CycleFinished(site string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cycles[site]++
	if err != nil {
		o.cycleErrs[site]++
	}
}

func (o *recordingObserver) RegionDispatched(site string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dispatched[site]++
}

func (o *recordingObserver) DispatchFailed(site, stage string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures[site+"/"+stage]++
}

func (o *recordingObserver) FieldWarnings(site string, count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.warnings[site] += count
}

func (o *recordingObserver) cyclesSeen(site string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cycles[site]
}

var errNotify = errors.New("webhook unavailable")
