package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "commutescore",
		Short:         "Score a commute for driving and biking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(analyzeCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(runCmd())
	root.AddCommand(keysCmd())
	root.AddCommand(weightsCmd())

	return root
}

func analyzeCmd() *cobra.Command {
	var (
		from, to   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score one commute and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), from, to, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "starting address")
	cmd.Flags().StringVar(&to, "to", "", "destination address")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func watchCmd() *cobra.Command {
	var (
		from, to      string
		interval      time.Duration
		bikeThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-score a commute periodically and alert on changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(from, to, interval, bikeThreshold)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "starting address (default: from config)")
	cmd.Flags().StringVar(&to, "to", "", "destination address (default: from config)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "time between checks (default: from config)")
	cmd.Flags().Float64Var(&bikeThreshold, "bike-threshold", 0, "alert when the bike score crosses this value (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start HTTP server and the configured commute watch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Show which providers use live or simulated data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(cmd.OutOrStdout())
		},
	}
}

func weightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weights",
		Short: "Show the factor weights in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeights(cmd.OutOrStdout())
		},
	}
}
