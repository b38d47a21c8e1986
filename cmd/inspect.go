package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/tracing"
)

var (
	inspectQuery      tracing.RecordQuery
	inspectListModels bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <trace.sqlite3>",
	Short: "List the records of a SQLite trace.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectListModels {
			return listTraceModels(cmd.OutOrStdout(), args[0])
		}

		return inspectTrace(cmd.OutOrStdout(), args[0], inspectQuery)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	f := inspectCmd.Flags()
	f.StringVar(&inspectQuery.Model, "model", "", "Only show records of this model")
	f.StringVar(&inspectQuery.Kind, "kind", "",
		"Only show records of this kind "+
			"(internal, external, confluent, output, schedule)")
	f.BoolVar(&inspectListModels, "list-models", false,
		"List the models in the trace instead of the records")
}

func openTrace(path string) (*tracing.SQLiteTraceReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}

	r := tracing.NewSQLiteTraceReader(path)
	r.Init()

	return r, nil
}

func inspectTrace(out io.Writer, path string, query tracing.RecordQuery) error {
	r, err := openTrace(path)
	if err != nil {
		return err
	}
	defer r.Close()

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tTIME\tMODEL\tKIND\tPAYLOAD")

	for _, rec := range r.ListRecords(query) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			rec.Step,
			devs.VTime{Real: rec.Time, Index: rec.Index}.String(),
			rec.Model,
			rec.Kind,
			rec.Payload,
		)
	}

	return tw.Flush()
}

func listTraceModels(out io.Writer, path string) error {
	r, err := openTrace(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, m := range r.ListModels() {
		fmt.Fprintln(out, m)
	}

	return nil
}
