package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/pricecast/internal/config"
	"github.com/inferloop/pricecast/internal/datasource"
	"github.com/inferloop/pricecast/internal/pipeline"
	"github.com/inferloop/pricecast/internal/visualization"
)

type ForecastOptions struct {
	ConfigFile string
	Symbol     string
	Market     string
	APIKey     string
	Epochs     int
	OutputFile string
	FitChart   bool
	Verbose    bool
}

func NewForecastCmd() *cobra.Command {
	opts := &ForecastOptions{}

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Train on the daily close-price history and predict the next day",
		Long: `Download the full daily closing-price history for one asset, train a
small LSTM sequence model from scratch over sliding windows, and emit the
predicted close price for the next trading day together with a chart
specification of the model's training/validation fit.`,
		Example: `  # Forecast tomorrow's ETH/USD close
  pricecast forecast --symbol ETH --market USD --api-key $ALPHA_VANTAGE_KEY

  # Shorter training run, chart written to a collaborator pipe
  pricecast forecast --symbol BTC --epochs 20 --output -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./pricecast.yaml)")
	cmd.Flags().StringVarP(&opts.Symbol, "symbol", "s", "", "asset symbol (default from config)")
	cmd.Flags().StringVarP(&opts.Market, "market", "m", "", "quote market (default from config)")
	cmd.Flags().StringVar(&opts.APIKey, "api-key", "", "price feed API key (default from config)")
	cmd.Flags().IntVar(&opts.Epochs, "epochs", 0, "override training epoch count")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "chart spec output (- for stdout)")
	cmd.Flags().BoolVar(&opts.FitChart, "fit-chart", false, "emit the full train/validation fit chart instead of the forecast chart")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	return cmd
}

func runForecast(ctx context.Context, opts *ForecastOptions) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	// Flags override the loaded configuration.
	if opts.Symbol != "" {
		cfg.DataSource.Symbol = opts.Symbol
	}
	if opts.Market != "" {
		cfg.DataSource.Market = opts.Market
	}
	if opts.APIKey != "" {
		cfg.DataSource.APIKey = opts.APIKey
	}
	if opts.Epochs > 0 {
		cfg.Training.Epochs = opts.Epochs
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	source := datasource.NewClient(cfg.DataSource.APIKey, logger)
	forecaster := pipeline.NewForecaster(cfg, source, logger)

	result, err := forecaster.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Next-day forecast for %s/%s: %.2f\n",
		result.Symbol, result.Market, result.NextForecast)

	chart := visualization.BuildForecastChart(result)
	if opts.FitChart {
		chart = visualization.BuildFitChart(result)
	}

	encoded, err := chart.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}

	if opts.OutputFile == "-" || opts.OutputFile == "" {
		_, err = os.Stdout.Write(append(encoded, '\n'))
		return err
	}
	return os.WriteFile(opts.OutputFile, append(encoded, '\n'), 0644)
}
