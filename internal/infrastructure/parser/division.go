package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/ports"
	"ElectionWatcher/internal/site"
)

const (
	indexRowSelector     = "table.table tbody tr"
	resultBlockSelector  = ".card-body > .district > .dis_ele_result > .dis_ele_result_block"
	summaryTableSelector = "div.total-votes-summery table"
	minResultBlockLines  = 4
)

// DivisionAdapter reads sites that publish an index page linking to one
// detail page per division. Divisions are deduplicated by name.
type DivisionAdapter struct {
	fetcher ports.PageFetcher
	parties domain.PartyTable
	logger  *slog.Logger
}

var _ site.Adapter = (*DivisionAdapter)(nil)

// NewDivisionAdapter wires a fetcher; parties defaults to DivisionParties.
func NewDivisionAdapter(fetcher ports.PageFetcher, parties domain.PartyTable, logger *slog.Logger) *DivisionAdapter {
	if parties == nil {
		parties = domain.DivisionParties
	}
	return &DivisionAdapter{fetcher: fetcher, parties: parties, logger: logger}
}

// Name identifies the adapter inside the registry.
func (a *DivisionAdapter) Name() string {
	return "division-index"
}

// ListRegions fetches the index page and returns its divisions in page order.
func (a *DivisionAdapter) ListRegions(ctx context.Context, target site.Target) ([]domain.Region, error) {
	if target.SourceURL == "" {
		return nil, fmt.Errorf("site %s has no source url", target.Name)
	}

	body, err := a.fetcher.Fetch(ctx, target.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}

	doc, err := newDocument(body)
	if err != nil {
		return nil, err
	}

	base, err := indexBaseURL(target)
	if err != nil {
		return nil, err
	}
	regions, warnings, err := parseDivisionIndex(doc, base)
	if err != nil {
		return nil, err
	}
	logWarnings(a.logger, target.Name, "index", warnings)

	if a.logger != nil {
		a.logger.Debug("divisions listed", "site", target.Name, "count", len(regions))
	}
	return regions, nil
}

// Extract fetches the division page and parses its result blocks and summary.
func (a *DivisionAdapter) Extract(ctx context.Context, target site.Target, region domain.Region) (domain.Extraction, error) {
	body := region.Page
	if body == nil {
		var err error
		body, err = a.fetcher.Fetch(ctx, region.URL)
		if err != nil {
			return domain.Extraction{}, fmt.Errorf("fetch division %s: %w", region.Name, err)
		}
	}

	doc, err := newDocument(body)
	if err != nil {
		return domain.Extraction{}, err
	}

	extraction := parseDivisionResults(doc, region.Name, a.parties)
	logWarnings(a.logger, target.Name, region.Name, extraction.Warnings)
	return extraction, nil
}

// indexBaseURL returns the directory detail links are relative to. Without an
// explicit base it is the directory holding the index page.
func indexBaseURL(target site.Target) (string, error) {
	if target.BaseURL != "" {
		return target.BaseURL, nil
	}
	src, err := url.Parse(strings.TrimSpace(target.SourceURL))
	if err != nil {
		return "", fmt.Errorf("invalid source url %s: %w", target.SourceURL, err)
	}
	return src.ResolveReference(&url.URL{Path: "./"}).String(), nil
}

func parseDivisionIndex(doc *goquery.Document, baseURL string) ([]domain.Region, []domain.FieldWarning, error) {
	base, err := directoryURL(baseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid base url %s: %w", baseURL, err)
	}

	var (
		regions  []domain.Region
		warnings []domain.FieldWarning
		seen     = map[string]struct{}{}
	)

	doc.Find(indexRowSelector).Each(func(i int, row *goquery.Selection) {
		cell := row.Find("td").First()
		name := strings.TrimSpace(cell.Text())
		if cell.Length() == 0 || name == "" {
			warnings = append(warnings, domain.FieldWarning{Section: "index", Item: fmt.Sprintf("row %d", i+1), Reason: "missing division name"})
			return
		}

		href, ok := row.Find("a[href]").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			warnings = append(warnings, domain.FieldWarning{Section: "index", Item: name, Reason: "missing detail link"})
			return
		}

		link, err := resolveLink(base, href)
		if err != nil {
			warnings = append(warnings, domain.FieldWarning{Section: "index", Item: name, Reason: "invalid link: " + err.Error()})
			return
		}

		if _, dup := seen[name]; dup {
			warnings = append(warnings, domain.FieldWarning{Section: "index", Item: name, Reason: "duplicate division row ignored"})
			return
		}
		seen[name] = struct{}{}

		regions = append(regions, domain.Region{Key: name, Name: name, URL: link})
	})

	return regions, warnings, nil
}

func parseDivisionResults(doc *goquery.Document, regionName string, parties domain.PartyTable) domain.Extraction {
	record := domain.NewRecord(regionName)
	var warnings []domain.FieldWarning

	doc.Find(resultBlockSelector).Each(func(i int, block *goquery.Selection) {
		lines := textLines(block)
		if len(lines) < minResultBlockLines {
			warnings = append(warnings, domain.FieldWarning{
				Section: "results",
				Item:    fmt.Sprintf("block %d", i+1),
				Reason:  fmt.Sprintf("expected at least %d lines, got %d", minResultBlockLines, len(lines)),
			})
			return
		}

		key := lines[0] + lines[1]
		field, ok := parties.Lookup(key)
		if !ok {
			warnings = append(warnings, domain.FieldWarning{Section: "results", Item: key, Reason: "party not in party table"})
			return
		}

		votesLine := lines[len(lines)-1]
		votes, ok := parseVotes(votesLine)
		if !ok {
			warnings = append(warnings, domain.FieldWarning{Section: "results", Item: key, Reason: "no vote count in " + votesLine})
		}
		record.SetParty(field, votes)
	})

	summary := map[string]int64{}
	table := doc.Find(summaryTableSelector).First()
	if table.Length() == 0 {
		warnings = append(warnings, domain.FieldWarning{Section: "summary", Reason: "summary table not found"})
	} else {
		collector := summaryCollector{record: &record, summary: summary, warnings: &warnings}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			th := row.Find("th").First()
			td := row.Find("td").First()
			if th.Length() == 0 || td.Length() == 0 {
				warnings = append(warnings, domain.FieldWarning{Section: "summary", Item: strings.TrimSpace(row.Text()), Reason: "row without label or count cell"})
				return
			}
			collector.add(th.Text(), td.Text())
		})
	}

	return domain.Extraction{Record: record, Summary: summary, Warnings: warnings}
}
