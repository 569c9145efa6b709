package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AmirejibiIlia/maiko/internal/engine"
	"github.com/AmirejibiIlia/maiko/internal/schema"
)

func newDescribeCmd(flags *globalFlags) *cobra.Command {
	var (
		dataPath   string
		sampleSize int
		overview   bool
	)

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the data context handed to the query planner.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), flags.verbose)

			table, err := loadTable(cmd.Context(), logger, flags, dataPath)
			if err != nil {
				return err
			}

			if overview {
				o, err := schema.BuildOverview(engine.New(logger), table)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "By metric:")
				printTable(cmd.OutOrStdout(), o.ByMetric)
				if len(o.ByClient.Columns) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "By client:")
					printTable(cmd.OutOrStdout(), o.ByClient)
				}
				return nil
			}

			dc, err := schema.Describe(table, sampleSize)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dc)
		},
	}

	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "local CSV or XLSX dataset (default: the configured store)")
	cmd.Flags().IntVar(&sampleSize, "sample", schema.DefaultSampleSize, "number of sample rows")
	cmd.Flags().BoolVar(&overview, "overview", false, "print per metric and per client totals instead")

	return cmd
}
