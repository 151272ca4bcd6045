package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/barsim/market"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a CSV bar file to Parquet",
	Long: `Convert reads time,open,high,low,close[,volume] rows (optionally xz
compressed) and writes them as a Parquet bar file.

Example:
  barsim convert --in data/es-1h.csv.xz --out data/es-1h.parquet --symbol ES`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

var (
	convIn     string
	convOut    string
	convSymbol string
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convIn, "in", "", "input CSV path (required)")
	convertCmd.Flags().StringVar(&convOut, "out", "", "output Parquet path (required)")
	convertCmd.Flags().StringVar(&convSymbol, "symbol", "", "symbol stored with every row")
	convertCmd.MarkFlagRequired("in")
	convertCmd.MarkFlagRequired("out")
}

func runConvert(cmd *cobra.Command, args []string) error {
	s, err := market.LoadCSV(convIn)
	if err != nil {
		return err
	}
	if err := market.WriteParquet(convOut, convSymbol, s.Bars()); err != nil {
		return fmt.Errorf("write %s: %w", convOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d bars to %s\n", s.Len(), convOut)
	return nil
}
