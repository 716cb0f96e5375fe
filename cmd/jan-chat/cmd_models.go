package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models offered by the chat API",
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, _ []string) error {
	models, err := newClient().ListModels(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMAX TOKENS\tDESCRIPTION")
	for _, m := range models {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", m.ID, m.Name, m.MaxTokens, m.Description)
	}
	return w.Flush()
}
