package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/infrastructure/fetcher"
	"ElectionWatcher/internal/site"
)

const nationalPage = `
<h4 class="card-title card-title-dash"> All Island Result </h4>
<table class="select-table">
  <tr><td><h6>Jathika Jana Balawegaya</h6></td><td align="right">6,863,186</td></tr>
  <tr><td><h6>Samagi Jana Balawegaya</h6></td><td align="right">1,968,716</td></tr>
  <tr><td><h6>Independent Group 7</h6></td><td align="right">1,000</td></tr>
  <tr><td><h6>Sarvajana Balaya</h6></td><td align="right">pending</td></tr>
</table>
<table class="select-table">
  <tr><td><p>Valid Votes</p></td><td align="right">11,148,006</td></tr>
  <tr><td><p>Rejected Votes</p></td><td align="right">667,240</td></tr>
  <tr><td><p>Total Polled</p></td><td align="right">11,815,246</td></tr>
</table>`

func TestParseNationalResults(t *testing.T) {
	t.Parallel()

	doc := mustDocument(t, nationalPage)
	extraction := parseNationalResults(doc, pageTitle(doc, "fallback"), domain.NationalParties)
	rec := extraction.Record

	if rec.RegionName != "All Island Result" {
		t.Fatalf("unexpected title: %q", rec.RegionName)
	}
	if rec.NPP == nil || *rec.NPP != 6863186 {
		t.Fatalf("unexpected npp: %v", rec.NPP)
	}
	if rec.SJB == nil || *rec.SJB != 1968716 {
		t.Fatalf("unexpected sjb: %v", rec.SJB)
	}
	if rec.MJP != nil {
		t.Fatalf("pending count must stay absent")
	}
	if rec.Valid == nil || *rec.Valid != 11148006 {
		t.Fatalf("unexpected valid votes: %v", rec.Valid)
	}
	if rec.Total == nil || *rec.Total != 11815246 {
		t.Fatalf("unexpected total votes: %v", rec.Total)
	}
	if rec.Registered != nil {
		t.Fatalf("missing electors row must leave registered absent")
	}
	if len(extraction.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", extraction.Warnings)
	}
}

func TestPageTitleFallback(t *testing.T) {
	t.Parallel()

	doc := mustDocument(t, `<p>nothing here</p>`)
	if got := pageTitle(doc, "results.elections.gov.lk"); got != "results.elections.gov.lk" {
		t.Fatalf("unexpected fallback title: %s", got)
	}
}

func TestNationalAdapterKeysByContent(t *testing.T) {
	t.Parallel()

	var version atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := nationalPage
		if version.Load() > 0 {
			page = strings.Replace(page, "6,863,186", "6,863,190", 1)
		}
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	adapter := NewNationalAdapter(fetcher.New(fetcher.Options{}, nil), nil, nil)
	target := site.Target{Name: "elections-gov", Label: "results.elections.gov.lk", SourceURL: server.URL}
	ctx := context.Background()

	first, err := adapter.ListRegions(ctx, target)
	if err != nil {
		t.Fatalf("ListRegions error: %v", err)
	}
	again, err := adapter.ListRegions(ctx, target)
	if err != nil {
		t.Fatalf("ListRegions error: %v", err)
	}
	if len(first) != 1 || first[0].Key != again[0].Key {
		t.Fatalf("unchanged page must keep its key")
	}
	if !strings.HasPrefix(first[0].Key, "sha256:") {
		t.Fatalf("unexpected key: %s", first[0].Key)
	}

	version.Store(1)
	changed, err := adapter.ListRegions(ctx, target)
	if err != nil {
		t.Fatalf("ListRegions error: %v", err)
	}
	if changed[0].Key == first[0].Key {
		t.Fatalf("changed page must produce a new key")
	}

	extraction, err := adapter.Extract(ctx, target, changed[0])
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if *extraction.Record.NPP != 6863190 {
		t.Fatalf("extract must use the prefetched page, got %d", *extraction.Record.NPP)
	}
}

func TestNationalAdapterUntitledPageUsesSiteName(t *testing.T) {
	t.Parallel()

	page := strings.Replace(nationalPage, "card-title-dash", "card-subtitle", 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	adapter := NewNationalAdapter(fetcher.New(fetcher.Options{}, nil), nil, nil)
	target := site.Target{Name: "elections-gov", SourceURL: server.URL}
	ctx := context.Background()

	regions, err := adapter.ListRegions(ctx, target)
	if err != nil {
		t.Fatalf("ListRegions error: %v", err)
	}
	if regions[0].Name != "elections-gov" {
		t.Fatalf("unexpected region name: %q", regions[0].Name)
	}

	regions[0].Name = ""
	extraction, err := adapter.Extract(ctx, target, regions[0])
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if err := extraction.Record.Validate(); err != nil {
		t.Fatalf("record must be dispatchable: %v", err)
	}
	if extraction.Record.RegionName != "elections-gov" {
		t.Fatalf("unexpected record name: %q", extraction.Record.RegionName)
	}
}
