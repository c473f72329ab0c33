package parser

import (
	"bytes"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"ElectionWatcher/internal/domain"
)

func newDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.ParseError{Stage: "document", Err: err}
	}
	return doc, nil
}

// textLines returns the trimmed, non-empty text lines of a selection, one per
// text node line, in document order.
func textLines(sel *goquery.Selection) []string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			for _, line := range strings.Split(n.Data, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return lines
}

// parseVotes keeps only the digits of text. It reports false when no digits
// remain or the number does not fit, in which case the count is absent.
func parseVotes(text string) (*int64, bool) {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return nil, false
	}
	v, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

// parseCount reads a summary cell such as "1,000,000".
func parseCount(text string) (int64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// summaryCollector applies label/count rows to a record.
type summaryCollector struct {
	record   *domain.Record
	summary  map[string]int64
	warnings *[]domain.FieldWarning
}

func (s summaryCollector) add(label, value string) {
	label = domain.NormalizeLabel(label)
	if label == "" {
		*s.warnings = append(*s.warnings, domain.FieldWarning{Section: "summary", Reason: "row without label"})
		return
	}

	count, ok := parseCount(value)
	if !ok {
		*s.warnings = append(*s.warnings, domain.FieldWarning{Section: "summary", Item: label, Reason: "count is not numeric: " + strings.TrimSpace(value)})
		return
	}
	s.summary[label] = count

	field, known := domain.SummaryFieldFor(label)
	if !known {
		*s.warnings = append(*s.warnings, domain.FieldWarning{Section: "summary", Item: label, Reason: "unknown summary label"})
		return
	}
	s.record.SetSummary(field, domain.Votes(count))
}

// resolveLink joins a relative href onto base, treating base as a directory.
func resolveLink(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func directoryURL(raw string) (*url.URL, error) {
	base, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base, nil
}

func logWarnings(logger *slog.Logger, site, region string, warnings []domain.FieldWarning) {
	if logger == nil {
		return
	}
	for _, w := range warnings {
		logger.Warn("field extraction warning", "site", site, "region", region, "warning", w.String())
	}
}
