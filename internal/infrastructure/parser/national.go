package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/ports"
	"ElectionWatcher/internal/site"
)

const (
	titleSelector        = "h4.card-title.card-title-dash"
	selectTableSelector  = "table.select-table"
	rightAlignedSelector = `td[align="right"]`
)

// NationalAdapter reads a single results page that is republished in place.
// The page is keyed by a digest of its body, so any upstream change,
// including a correction, is announced again.
type NationalAdapter struct {
	fetcher ports.PageFetcher
	parties domain.PartyTable
	logger  *slog.Logger
}

var _ site.Adapter = (*NationalAdapter)(nil)

// NewNationalAdapter wires a fetcher; parties defaults to NationalParties.
func NewNationalAdapter(fetcher ports.PageFetcher, parties domain.PartyTable, logger *slog.Logger) *NationalAdapter {
	if parties == nil {
		parties = domain.NationalParties
	}
	return &NationalAdapter{fetcher: fetcher, parties: parties, logger: logger}
}

// Name identifies the adapter inside the registry.
func (a *NationalAdapter) Name() string {
	return "single-page"
}

// ListRegions fetches the page once and returns it as a single region.
func (a *NationalAdapter) ListRegions(ctx context.Context, target site.Target) ([]domain.Region, error) {
	if target.SourceURL == "" {
		return nil, fmt.Errorf("site %s has no source url", target.Name)
	}

	body, err := a.fetcher.Fetch(ctx, target.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	doc, err := newDocument(body)
	if err != nil {
		return nil, err
	}

	return []domain.Region{{
		Key:  contentKey(body),
		Name: pageTitle(doc, siteTitle(target)),
		URL:  target.SourceURL,
		Page: body,
	}}, nil
}

// Extract parses the party rows and the trailing summary table.
func (a *NationalAdapter) Extract(ctx context.Context, target site.Target, region domain.Region) (domain.Extraction, error) {
	body := region.Page
	if body == nil {
		url := region.URL
		if url == "" {
			url = target.SourceURL
		}
		var err error
		body, err = a.fetcher.Fetch(ctx, url)
		if err != nil {
			return domain.Extraction{}, fmt.Errorf("fetch page: %w", err)
		}
	}

	doc, err := newDocument(body)
	if err != nil {
		return domain.Extraction{}, err
	}

	fallback := region.Name
	if fallback == "" {
		fallback = siteTitle(target)
	}
	extraction := parseNationalResults(doc, pageTitle(doc, fallback), a.parties)
	logWarnings(a.logger, target.Name, extraction.Record.RegionName, extraction.Warnings)
	return extraction, nil
}

func contentKey(body []byte) string {
	sum := sha256.Sum256(body)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// siteTitle names the single region when the page carries no title.
func siteTitle(target site.Target) string {
	if target.Label != "" {
		return target.Label
	}
	return target.Name
}

func pageTitle(doc *goquery.Document, fallback string) string {
	if title := strings.TrimSpace(doc.Find(titleSelector).First().Text()); title != "" {
		return title
	}
	return fallback
}

func parseNationalResults(doc *goquery.Document, title string, parties domain.PartyTable) domain.Extraction {
	record := domain.NewRecord(title)
	var warnings []domain.FieldWarning

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		heading := row.Find("h6").First()
		if heading.Length() == 0 {
			return
		}
		name := strings.TrimSpace(heading.Text())
		field, ok := parties.Lookup(name)
		if !ok {
			warnings = append(warnings, domain.FieldWarning{Section: "results", Item: name, Reason: "party not in party table"})
			return
		}

		cell := row.Find(rightAlignedSelector).First()
		if cell.Length() == 0 {
			warnings = append(warnings, domain.FieldWarning{Section: "results", Item: name, Reason: "no vote cell"})
			return
		}
		votes, ok := parseVotes(cell.Text())
		if !ok {
			warnings = append(warnings, domain.FieldWarning{Section: "results", Item: name, Reason: "no vote count in " + strings.TrimSpace(cell.Text())})
		}
		record.SetParty(field, votes)
	})

	summary := map[string]int64{}
	table := doc.Find(selectTableSelector).Last()
	if table.Length() == 0 {
		warnings = append(warnings, domain.FieldWarning{Section: "summary", Reason: "summary table not found"})
	} else {
		collector := summaryCollector{record: &record, summary: summary, warnings: &warnings}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			label := row.Find("p").First()
			value := row.Find(rightAlignedSelector).First()
			if label.Length() == 0 || value.Length() == 0 {
				warnings = append(warnings, domain.FieldWarning{Section: "summary", Item: strings.TrimSpace(row.Text()), Reason: "row without label or count cell"})
				return
			}
			collector.add(label.Text(), value.Text())
		})
	}

	return domain.Extraction{Record: record, Summary: summary, Warnings: warnings}
}
