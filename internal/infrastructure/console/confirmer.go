package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"

	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/ports"
)

// Confirmer prints a region's party counts and asks the operator for y/n.
type Confirmer struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer

	startReader sync.Once
	lines       chan readResult
}

type readResult struct {
	line string
	err  error
}

var _ ports.Confirmer = (*Confirmer)(nil)

// NewConfirmer reads answers from in and writes prompts to out.
func NewConfirmer(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{in: bufio.NewReader(in), out: out, lines: make(chan readResult)}
}

// readLoop feeds answer lines to Confirm. A line typed after a cancelled
// prompt answers the next one.
func (c *Confirmer) readLoop() {
	defer close(c.lines)
	for {
		line, err := c.in.ReadString('\n')
		c.lines <- readResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// Confirm blocks until the operator answers y or n or ctx is done. EOF counts
// as a decline.
func (c *Confirmer) Confirm(ctx context.Context, region string, record domain.Record) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	WriteVoteTable(c.out, record)

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		c.startReader.Do(func() { go c.readLoop() })

		fmt.Fprintf(c.out, "Dispatch results for %s? (y/n): ", region)
		var res readResult
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return false, ctx.Err()
		case r, ok := <-c.lines:
			if !ok {
				return false, nil
			}
			res = r
		}

		line, err := res.line, res.err
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read answer: %w", err)
		}
	}
}

// WriteVoteTable renders the party counts from highest to lowest.
func WriteVoteTable(out io.Writer, record domain.Record) {
	type row struct {
		field domain.PartyField
		votes int64
		known bool
	}

	rows := make([]row, 0, len(domain.PartyFields))
	for _, f := range domain.PartyFields {
		r := row{field: f}
		if v := record.Party(f); v != nil {
			r.votes, r.known = *v, true
		}
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].votes > rows[j].votes })

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(record.RegionName)
	t.AppendHeader(table.Row{"#", "Party", "Votes"})
	for i, r := range rows {
		votes := "-"
		if r.known {
			votes = fmt.Sprintf("%d", r.votes)
		}
		t.AppendRow(table.Row{i + 1, string(r.field), votes})
	}
	t.AppendFooter(table.Row{"", "valid / polled", fmt.Sprintf("%s / %s", optional(record.Valid), optional(record.Total))})
	t.Render()
}

func optional(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
