package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/infrastructure/fetcher"
	"ElectionWatcher/internal/site"
)

const indexPage = `
<table class="table">
  <thead><tr><th>Division</th><th></th></tr></thead>
  <tbody>
    <tr><td> Colombo </td><td><a href="colombo.php">view</a></td></tr>
    <tr><td>Kandy</td><td><a href="kandy.php">view</a></td></tr>
  </tbody>
</table>`

const divisionPage = `
<div class="card-body">
  <div class="district">
    <div class="dis_ele_result">
      <div class="dis_ele_result_block">
        <span>NPP</span>
        <span>Jathika Jana Balawegaya</span>
        <p>Candidate X</p>
        <p>12,345 votes</p>
      </div>
      <div class="dis_ele_result_block">
        <span>SJB</span>
        <span>Samagi Jana Balawegaya</span>
        <p>Candidate Y</p>
        <p>- votes</p>
      </div>
      <div class="dis_ele_result_block">
        <span>XYZ</span>
        <span>Unknown Alliance</span>
        <p>Candidate Z</p>
        <p>999 votes</p>
      </div>
      <div class="dis_ele_result_block">
        <span>SLPP</span>
        <span>Sri Lanka Podujana Peramuna</span>
        <p>Candidate W</p>
        <p>0 votes</p>
      </div>
    </div>
  </div>
</div>
<div class="total-votes-summery">
  <table>
    <tr><th>Valid</th><td>1,000,000</td></tr>
    <tr><th>Rejected</th><td>5,000</td></tr>
    <tr><th>Polled</th><td>n/a</td></tr>
  </table>
</div>`

func mustDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

func TestParseDivisionIndex(t *testing.T) {
	t.Parallel()

	regions, warnings, err := parseDivisionIndex(mustDocument(t, indexPage), "https://example.org/ge2024")
	if err != nil {
		t.Fatalf("parseDivisionIndex error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	want := []domain.Region{
		{Key: "Colombo", Name: "Colombo", URL: "https://example.org/ge2024/colombo.php"},
		{Key: "Kandy", Name: "Kandy", URL: "https://example.org/ge2024/kandy.php"},
	}
	if diff := cmp.Diff(want, regions); diff != "" {
		t.Fatalf("regions mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDivisionIndexSkipsBrokenRows(t *testing.T) {
	t.Parallel()

	html := `
	<table class="table"><tbody>
	  <tr><td>Galle</td><td>no link yet</td></tr>
	  <tr><td></td><td><a href="empty.php">view</a></td></tr>
	  <tr><td>Matara</td><td><a href="/abs/matara.php">view</a></td></tr>
	  <tr><td>Matara</td><td><a href="matara-2.php">view</a></td></tr>
	</tbody></table>`

	regions, warnings, err := parseDivisionIndex(mustDocument(t, html), "https://example.org/ge2024/")
	if err != nil {
		t.Fatalf("parseDivisionIndex error: %v", err)
	}
	if len(regions) != 1 || regions[0].Name != "Matara" {
		t.Fatalf("unexpected regions: %+v", regions)
	}
	if regions[0].URL != "https://example.org/abs/matara.php" {
		t.Fatalf("absolute path not honoured: %s", regions[0].URL)
	}
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %v", len(warnings), warnings)
	}
}

func TestParseDivisionResults(t *testing.T) {
	t.Parallel()

	extraction := parseDivisionResults(mustDocument(t, divisionPage), "Colombo", domain.DivisionParties)
	rec := extraction.Record

	want := domain.NewRecord("Colombo")
	want.NPP = domain.Votes(12345)
	want.SLPP = domain.Votes(0)
	want.Valid = domain.Votes(1000000)
	want.Rejected = domain.Votes(5000)

	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	if rec.SJB != nil {
		t.Fatalf("expected absent sjb votes, got %d", *rec.SJB)
	}
	if rec.Registered != nil {
		t.Fatalf("missing electors row must leave registered absent")
	}

	wantSummary := map[string]int64{"valid": 1000000, "rejected": 5000}
	if diff := cmp.Diff(wantSummary, extraction.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}

	// sjb without digits, unknown party, non-numeric polled
	if len(extraction.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", extraction.Warnings)
	}
}

func TestParseDivisionResultsWithoutSummary(t *testing.T) {
	t.Parallel()

	html := strings.Split(divisionPage, `<div class="total-votes-summery">`)[0]
	extraction := parseDivisionResults(mustDocument(t, html), "Colombo", domain.DivisionParties)

	if extraction.Record.NPP == nil || *extraction.Record.NPP != 12345 {
		t.Fatalf("party extraction must survive a missing summary")
	}
	found := false
	for _, w := range extraction.Warnings {
		if w.Section == "summary" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a summary warning, got %v", extraction.Warnings)
	}
}

func TestParseDivisionResultsShortBlock(t *testing.T) {
	t.Parallel()

	html := `
	<div class="card-body"><div class="district"><div class="dis_ele_result">
	  <div class="dis_ele_result_block"><span>NPP</span><span>Jathika Jana Balawegaya</span></div>
	  <div class="dis_ele_result_block">
	    <span>MJP</span><span>Minority Justice Party</span><p>Candidate</p><p>1,234</p>
	  </div>
	</div></div></div>`

	extraction := parseDivisionResults(mustDocument(t, html), "Jaffna", domain.DivisionParties)
	if extraction.Record.NPP != nil {
		t.Fatalf("short block must not populate npp")
	}
	if extraction.Record.MJP == nil || *extraction.Record.MJP != 1234 {
		t.Fatalf("expected mjp 1234, got %v", extraction.Record.MJP)
	}
}

func TestParseVotes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want *int64
	}{
		{"12,345 votes", domain.Votes(12345)},
		{"0", domain.Votes(0)},
		{"- votes", nil},
		{"", nil},
		{"99999999999999999999999", nil},
	}
	for _, tc := range cases {
		got, _ := parseVotes(tc.in)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("parseVotes(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestDivisionAdapterEndToEnd(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/ge2024/index.php", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(indexPage))
	})
	mux.HandleFunc("/ge2024/colombo.php", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(divisionPage))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	adapter := NewDivisionAdapter(fetcher.New(fetcher.Options{}, nil), nil, nil)
	target := site.Target{
		Name:      "adaderana",
		SourceURL: server.URL + "/ge2024/index.php",
		BaseURL:   server.URL + "/ge2024/",
	}

	ctx := context.Background()
	regions, err := adapter.ListRegions(ctx, target)
	if err != nil {
		t.Fatalf("ListRegions error: %v", err)
	}
	if diff := cmp.Diff([]string{"Colombo", "Kandy"}, regionNames(regions), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("region names mismatch (-want +got):\n%s", diff)
	}

	extraction, err := adapter.Extract(ctx, target, regions[0])
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if extraction.Record.RegionName != "Colombo" || *extraction.Record.NPP != 12345 {
		t.Fatalf("unexpected record: %+v", extraction.Record)
	}

	if _, err := adapter.Extract(ctx, target, regions[1]); err == nil {
		t.Fatalf("expected fetch error for missing kandy page")
	}
}

func TestDivisionAdapterWithoutBaseURL(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/ge2024/index.php", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(indexPage))
	})
	mux.HandleFunc("/ge2024/colombo.php", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(divisionPage))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	adapter := NewDivisionAdapter(fetcher.New(fetcher.Options{}, nil), nil, nil)
	target := site.Target{Name: "adaderana", SourceURL: server.URL + "/ge2024/index.php?lang=en"}

	ctx := context.Background()
	regions, err := adapter.ListRegions(ctx, target)
	if err != nil {
		t.Fatalf("ListRegions error: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %+v", regions)
	}
	if want := server.URL + "/ge2024/colombo.php"; regions[0].URL != want {
		t.Fatalf("link resolved to %s, want %s", regions[0].URL, want)
	}

	extraction, err := adapter.Extract(ctx, target, regions[0])
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if extraction.Record.RegionName != "Colombo" {
		t.Fatalf("unexpected record: %+v", extraction.Record)
	}
}

func TestIndexBaseURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		target site.Target
		want   string
	}{
		{site.Target{SourceURL: "https://example.org/ge2024/index.php"}, "https://example.org/ge2024/"},
		{site.Target{SourceURL: "https://example.org/ge2024/"}, "https://example.org/ge2024/"},
		{site.Target{SourceURL: "https://example.org"}, "https://example.org/"},
		{site.Target{SourceURL: "https://example.org/a/index.php", BaseURL: "https://cdn.example.org/b"}, "https://cdn.example.org/b"},
	}
	for _, tc := range cases {
		got, err := indexBaseURL(tc.target)
		if err != nil {
			t.Fatalf("indexBaseURL(%+v) error: %v", tc.target, err)
		}
		if got != tc.want {
			t.Fatalf("indexBaseURL(%+v) = %s, want %s", tc.target, got, tc.want)
		}
	}
}

func regionNames(regions []domain.Region) []string {
	names := make([]string, 0, len(regions))
	for _, r := range regions {
		names = append(names, r.Name)
	}
	return names
}
