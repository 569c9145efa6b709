package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AmirejibiIlia/maiko/internal/config"
)

func newAskCmd(flags *globalFlags) *cobra.Command {
	var showQuery bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a natural language question about the dataset.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), flags.verbose)

			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}

			service, err := newChatService(cmd.Context(), logger, cfg)
			if err != nil {
				return err
			}

			answer, err := service.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showQuery {
				err := printJSON(out, answer.Query)
				if err != nil {
					return err
				}
				printTable(out, answer.Result)
			}
			fmt.Fprintln(out, answer.Narration)
			fmt.Fprintf(out, "\nquestion id: %s\n", answer.QuestionID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showQuery, "show-query", false, "also print the planned query and its result")

	return cmd
}
