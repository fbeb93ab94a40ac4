package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meenmo/moquant/cmd/moquant/internal/price"
	"github.com/meenmo/moquant/cmd/moquant/internal/stats"
	"github.com/meenmo/moquant/config"
	"github.com/meenmo/moquant/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// errReported marks a failure already written to stdout as JSON.
var errReported = errors.New("reported")

type app struct {
	configPath string
	logLevel   string
	logFormat  string
	cfg        config.Config
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errReported) {
			return 1
		}
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	return 0
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "moquant",
		Short:         "Coupon leg valuation and sample statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (YAML, JSON or TOML)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level, overrides the config file")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: json or console")

	root.AddCommand(a.priceCmd(), a.statsCmd())
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	logging.SetLogger(l)
	config.SetConfig(cfg)
	a.cfg = cfg
	return nil
}

func (a *app) priceCmd() *cobra.Command {
	var input, evalDate string
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Value coupon legs from a YAML or JSON scenario",
		Long: "Read a scenario from --input or stdin, build its legs, attach Black pricers\n" +
			"and print per-cash-flow rates and amounts with leg NPVs as JSON.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return writeJSON(cmd.OutOrStdout(), price.Output{Error: fmt.Sprintf("failed to read input: %v", err)}, errReported)
			}
			sc, err := price.Decode(data)
			if err != nil {
				return writeJSON(cmd.OutOrStdout(), price.Output{Error: err.Error()}, errReported)
			}
			if evalDate != "" {
				sc.EvaluationDate = evalDate
			}
			out, err := price.Price(cmd.Context(), a.cfg, sc)
			if err != nil {
				logging.L().Warn("pricing failed", zap.Error(err))
				return writeJSON(cmd.OutOrStdout(), price.Output{Error: err.Error()}, errReported)
			}
			return writeJSON(cmd.OutOrStdout(), out, nil)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "scenario path (reads stdin when empty)")
	cmd.Flags().StringVar(&evalDate, "evaluation-date", "", "evaluation date, overrides config and scenario")
	return cmd
}

type statsError struct {
	Error string `json:"error"`
}

func (a *app) statsCmd() *cobra.Command {
	var input string
	var confidence float64
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise weighted samples",
		Long: "Read values, weights and vectors from --input or stdin and print moments,\n" +
			"percentiles, risk measures and covariance as JSON.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return writeJSON(cmd.OutOrStdout(), statsError{fmt.Sprintf("failed to read input: %v", err)}, errReported)
			}
			in, err := stats.Decode(data)
			if err != nil {
				return writeJSON(cmd.OutOrStdout(), statsError{err.Error()}, errReported)
			}
			c := a.cfg.Statistics.VarConfidence
			if cmd.Flags().Changed("confidence") {
				c = confidence
			}
			r, err := stats.Summarise(in, c)
			if err != nil {
				return writeJSON(cmd.OutOrStdout(), statsError{err.Error()}, errReported)
			}
			return writeJSON(cmd.OutOrStdout(), r, nil)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "samples path (reads stdin when empty)")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.99, "VaR confidence in [0.9, 1)")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path = strings.TrimSpace(path); path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func writeJSON(w io.Writer, v any, ret error) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(b))
	return ret
}
