package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/engine"
)

func newQueryCmd(flags *globalFlags) *cobra.Command {
	var (
		dataPath  string
		queryPath string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Execute a JSON query object against the dataset.",
		Example: `  maiko query --data revenue.csv --query q.json
  echo '{"group_by": ["month"], "aggregations": {"value": ["sum"]}}' | maiko query --data revenue.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), flags.verbose)

			raw, err := readQuery(cmd.InOrStdin(), queryPath)
			if err != nil {
				return err
			}

			q, err := internal.ParseQuery(raw)
			if err != nil {
				return err
			}

			table, err := loadTable(cmd.Context(), logger, flags, dataPath)
			if err != nil {
				return err
			}

			result, err := engine.New(logger).Execute(table, q)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), result.Records())
			}
			printTable(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "local CSV or XLSX dataset (default: the configured store)")
	cmd.Flags().StringVarP(&queryPath, "query", "q", "-", "file holding the query object, - for stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON records")

	return cmd
}

func readQuery(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read query from stdin: %w", err)
		}
		if len(raw) == 0 {
			return nil, errors.New("no query object given")
		}
		return raw, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query: %w", err)
	}
	return raw, nil
}
