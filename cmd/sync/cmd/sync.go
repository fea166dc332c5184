package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stock_dashboard/internal/feature/marketsync/domain/entity"
	"stock_dashboard/internal/shared/markettime"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run an initial sync on an empty store, a regular sync otherwise",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd, a.container.Sync.Trigger)
		},
	}
}

func newInitialCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "initial",
		Short: "Load historical end-of-day prices for every symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd, a.container.Sync.InitialSync)
		},
	}
}

func newQuoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Refresh today's row of a single symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd, func(ctx context.Context) (*entity.SyncResult, error) {
				return a.container.Sync.RefreshSymbol(ctx, args[0])
			})
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stored record counts, recent runs and the last sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			st, err := a.collectStatus(ctx, recent)
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), st)
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 5, "number of recent sync runs to show")
	return cmd
}

func (a *app) runSync(cmd *cobra.Command, fn func(context.Context) (*entity.SyncResult, error)) error {
	ctx, cancel := a.context(cmd)
	defer cancel()

	res, err := fn(ctx)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	if !res.Success {
		return fmt.Errorf("sync did not complete: %s", res.Message)
	}
	return nil
}

// status は status コマンドの出力内容です。
type status struct {
	MarketDate   time.Time
	DataFinal    bool
	TotalRecords int64
	Stats        entity.SyncStats
	LastSuccess  *time.Time
	Recent       []entity.SyncLog
	Symbols      []symbolStatus
}

type symbolStatus struct {
	Symbol   string
	LastDate *time.Time
}

func (a *app) collectStatus(ctx context.Context, recent int) (*status, error) {
	c := a.container

	total, err := c.Stocks.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stocks: %w", err)
	}
	stats, err := c.SyncLogs.Stats(ctx)
	if err != nil {
		return nil, err
	}
	last, err := c.SyncLogs.LastSyncTime(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := c.SyncLogs.Recent(ctx, recent)
	if err != nil {
		return nil, err
	}

	st := &status{
		MarketDate:   c.Clock.Today(),
		DataFinal:    c.Clock.IsAfterMarketClose(),
		TotalRecords: total,
		Stats:        *stats,
		LastSuccess:  last,
		Recent:       logs,
	}
	for _, sym := range c.Sync.Symbols() {
		d, err := c.Stocks.LastDateForSymbol(ctx, sym)
		if err != nil {
			return nil, fmt.Errorf("last date for %s: %w", sym, err)
		}
		st.Symbols = append(st.Symbols, symbolStatus{Symbol: sym, LastDate: d})
	}
	return st, nil
}

func printResult(w io.Writer, res *entity.SyncResult) {
	fmt.Fprintln(w, res.Message)
	if !res.Success {
		return
	}
	fmt.Fprintf(w, "records: %d\n", res.TotalRecords)
	if res.Mode == entity.SyncTypeManual {
		fmt.Fprintf(w, "final: %t\nduration: %.2fs\n", res.IsFinal, res.Duration.Seconds())
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "error: %s: %s\n", e.Symbol, e.Error)
	}
}

func printStatus(w io.Writer, st *status) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "market date\t%s (final: %t)\n", markettime.FormatDate(st.MarketDate), st.DataFinal)
	fmt.Fprintf(tw, "records\t%d\n", st.TotalRecords)
	fmt.Fprintf(tw, "syncs\t%d (success %d, failed %d)\n", st.Stats.TotalSyncs, st.Stats.SuccessfulSyncs, st.Stats.FailedSyncs)
	fmt.Fprintf(tw, "records synced\t%d\n", st.Stats.TotalRecordsSynced)
	fmt.Fprintf(tw, "last success\t%s\n", formatTime(st.LastSuccess))

	if len(st.Recent) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "SYNCED AT\tTYPE\tSTATUS\tRECORDS")
		for _, l := range st.Recent {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", formatTime(&l.SyncedAt), l.SyncType, l.Status, l.RecordsSynced)
		}
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SYMBOL\tLAST DATE")
	for _, s := range st.Symbols {
		last := "-"
		if s.LastDate != nil {
			last = markettime.FormatDate(*s.LastDate)
		}
		fmt.Fprintf(tw, "%s\t%s\n", s.Symbol, last)
	}
	return tw.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
