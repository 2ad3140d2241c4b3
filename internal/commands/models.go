// internal/commands/models.go
package storyqa

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/storyqa/internal/generation"
	"github.com/mwiater/storyqa/internal/metrics"
	"github.com/mwiater/storyqa/internal/tui"
)

// modelsCmd groups the model inspection subcommands.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the registered generation models",
}

// modelsListCmd implements 'models list'.
var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered model names and their remote bindings",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config()
		out := cmd.OutOrStdout()
		for _, name := range generation.ListAvailableModels() {
			binding, _ := cfg.BindingFor(name)
			fmt.Fprintf(out, "%-8s %s @ %s\n", name, binding.Model, binding.Host)
		}
	},
}

// modelsInfoCmd implements 'models info', which prints the comparison table
// or, given a name, a single model's details.
var modelsInfoCmd = &cobra.Command{
	Use:   "info [model]",
	Short: "Show the model comparison table or one model's details",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			fmt.Fprintln(out, tui.RenderComparison(generation.Profiles(), wrapWidth))
			return nil
		}
		profile, err := generation.Profile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, tui.RenderMarkdown(tui.ModelDetailsMarkdown(profile), wrapWidth))
		return nil
	},
}

// modelsStatsCmd implements 'models stats', which prints recorded metrics.
var modelsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recorded per-model generation metrics",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config()
		out := cmd.OutOrStdout()
		snapshot := metrics.NewAggregator(cfg.MetricsFilePath()).Snapshot()
		if len(snapshot) == 0 {
			fmt.Fprintf(out, "No metrics recorded in %s (enable with --metrics).\n", cfg.MetricsFilePath())
			return
		}
		printMetrics(out, snapshot)
	},
}

func printMetrics(out io.Writer, snapshot []metrics.ModelMetrics) {
	for _, m := range snapshot {
		s := m.OverallStats
		fmt.Fprintln(out, tui.HeaderStyle.Render(m.ModelName))
		fmt.Fprintf(out, "  requests: %d  failures: %d  updated: %s\n", s.TotalRequests, s.Failures, m.LastUpdatedUTC.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "  latency ms:    mean %.1f  sd %.1f  min %.1f  max %.1f\n", s.LatencyMillis.Mean, s.LatencyMillis.StdDev(), s.LatencyMillis.Min, s.LatencyMillis.Max)
		fmt.Fprintf(out, "  output words:  mean %.1f  sd %.1f\n", s.OutputWords.Mean, s.OutputWords.StdDev())
		fmt.Fprintf(out, "  tokens/sec:    mean %.1f  sd %.1f\n", s.TokensPerSecond.Mean, s.TokensPerSecond.StdDev())
		if len(m.PerformanceBuckets) > 0 {
			buckets := make([]string, 0, len(m.PerformanceBuckets))
			for _, b := range m.PerformanceBuckets {
				buckets = append(buckets, fmt.Sprintf("%s=%d", b.Bucket, b.Stats.TotalRequests))
			}
			fmt.Fprintf(out, "  input buckets: %s\n", strings.Join(buckets, "  "))
		}
	}
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsInfoCmd)
	modelsCmd.AddCommand(modelsStatsCmd)
}
