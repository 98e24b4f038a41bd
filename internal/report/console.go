// Package report renders rankings for humans.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/mohamedkhairy/strategy-lab/internal/backtest"
	"github.com/mohamedkhairy/strategy-lab/internal/storage"
)

// Console prints rankings as tables
type Console struct {
	out io.Writer
}

// NewConsole creates a console report writing to stdout
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a console report writing to w
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintRanking writes one row per ranked strategy, best first
func (c *Console) PrintRanking(ranking *backtest.Ranking) error {
	if ranking == nil || len(ranking.Entries) == 0 {
		fmt.Fprintln(c.out, "no strategies ranked")
		return nil
	}

	fmt.Fprintf(c.out, "\nRanking %s | series %s | criterion %s\n", ranking.ID, ranking.Series, ranking.Criterion)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Strategy", "Score", "Trades", "Open", "Bars", "Run")

	for _, e := range ranking.Entries {
		bars := "-"
		if e.Result != nil {
			bars = strconv.Itoa(e.Result.BarsProcessed)
		}
		if err := table.Append(
			strconv.Itoa(e.Rank),
			e.Strategy,
			formatScore(e.Score),
			strconv.Itoa(e.Trades),
			yesNo(e.OpenTrade),
			bars,
			shortID(e.RunID),
		); err != nil {
			return fmt.Errorf("render ranking: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("render ranking: %w", err)
	}
	return nil
}

// PrintRuns writes stored runs, newest first
func (c *Console) PrintRuns(runs []storage.RunRecord) error {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "no stored runs")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("When", "Series", "Criterion", "#", "Strategy", "Score", "Trades")

	for _, run := range runs {
		if err := table.Append(
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Series,
			run.Criterion,
			strconv.Itoa(run.Rank),
			run.Strategy,
			formatScore(run.Score),
			strconv.Itoa(run.Trades),
		); err != nil {
			return fmt.Errorf("render runs: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("render runs: %w", err)
	}
	return nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 4, 64)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// shortID keeps the first uuid group
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
