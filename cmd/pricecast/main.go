package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inferloop/pricecast/cmd/pricecast/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pricecast",
		Short: "Next-day close-price forecaster",
		Long: `Trains a small LSTM sequence model on one asset's daily closing-price
history and predicts the close price of the next trading day. Every run
trains from scratch; nothing is persisted between invocations.`,
		Version: "0.1.0",
	}

	rootCmd.AddCommand(commands.NewForecastCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
