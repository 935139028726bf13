package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/frontier/internal/di"
	"github.com/aristath/frontier/internal/modules/allocation"
	"github.com/aristath/frontier/internal/modules/analysis"
	"github.com/aristath/frontier/internal/modules/charts"
)

var (
	optimizeHoldings []string
	optimizeIdx      int
	optimizeCharts   string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Compute the Pareto front for a portfolio",
	Long: `Fetch a year of daily closes for every holding, compute per-asset statistics,
and print the Pareto front of expected return against volatility followed by the
allocation table. With --idx the allocation table includes the weights and
values of that front member.

Example:
  frontier optimize --holding AAPL=10 --holding MSFT=5 --idx 2 --charts ./out`,
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringArrayVar(&optimizeHoldings, "holding", nil, "holding as TICKER=QUANTITY (repeatable)")
	optimizeCmd.Flags().IntVar(&optimizeIdx, "idx", allocation.BaselineIndex, "front member to compare against the current allocation")
	optimizeCmd.Flags().StringVar(&optimizeCharts, "charts", "", "directory to write PNG charts to")
	_ = optimizeCmd.MarkFlagRequired("holding")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	portfolio, err := parseHoldings(optimizeHoldings)
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	container, err := di.Wire(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = container.Close(ctx)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lastPhase := ""
	result, err := container.AnalysisService.Run(ctx, portfolio, func(current, total int, message string) {
		if message != lastPhase || current == total {
			log.Debug().Str("phase", message).Int("current", current).Int("total", total).Msg("Progress")
			lastPhase = message
		}
	})
	if err != nil {
		return err
	}

	alloc, err := result.Allocation(optimizeIdx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printFront(out, result)
	fmt.Fprintln(out)
	printTable(out, alloc.Formatted())

	if optimizeCharts != "" {
		if err := writeCharts(optimizeCharts, result, alloc); err != nil {
			return err
		}
		log.Info().Str("dir", optimizeCharts).Msg("Charts written")
	}
	return nil
}

func printFront(w io.Writer, result *analysis.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	header := []string{"#", "ER", "EV", "SR"}
	header = append(header, result.Front.Tickers...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i, sol := range result.Front.Solutions {
		cells := []string{strconv.Itoa(i), ratio(sol.ER), ratio(sol.EV), ratio(sol.SR)}
		for _, weight := range sol.Weights {
			cells = append(cells, ratio(weight))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	fmt.Fprintf(tw, "current\t%s\t%s\t%s\n", ratio(result.Current.ER), ratio(result.Current.EV), ratio(result.Current.SR))
}

func printTable(w io.Writer, table allocation.Table) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, strings.Join(table.Columns, "\t"))
	for _, row := range table.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
}

func ratio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func writeCharts(dir string, result *analysis.Result, alloc allocation.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	renders := map[string]func() ([]byte, error){
		"frontier.png":   func() ([]byte, error) { return charts.Frontier(result.Front, result.Cloud, result.Current, alloc.Index) },
		"weights.png":    func() ([]byte, error) { return charts.Weights(alloc) },
		"statistics.png": func() ([]byte, error) { return charts.Statistics(result.Stats()) },
	}
	for name, render := range renders {
		img, err := render()
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), img, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
