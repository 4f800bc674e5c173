package main

import (
	"github.com/koustreak/simpledb/internal/database"
	"github.com/spf13/cobra"
)

type queryFlags struct {
	fetch string
	raw   bool
}

func (f *queryFlags) register(cmd *cobra.Command, withFetch bool) {
	if withFetch {
		cmd.Flags().StringVarP(&f.fetch, "fetch", "f", "assoc", "Row shape: assoc, num or column:N")
	}
	cmd.Flags().BoolVar(&f.raw, "raw-args", false, "Bind every argument as a string")
}

func newCountCmd(a *app) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "count SQL [ARGS...]",
		Short: "Print the first column of the first row as an integer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			n, err := conn.Count(cmd.Context(), args[0], bindArgs(args[1:], flags.raw)...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), n)
		},
	}
	flags.register(cmd, false)
	return cmd
}

type rowsOutput struct {
	Verb database.Verb `json:"verb"`
	Rows []any         `json:"rows"`
}

type affectedOutput struct {
	Verb         database.Verb `json:"verb"`
	RowsAffected int64         `json:"rows_affected"`
}

func newQueryCmd(a *app) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "query SQL [ARGS...]",
		Short: "Run a statement: rows for select/show, affected count for insert/update/delete",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetch, err := database.ParseFetch(flags.fetch)
			if err != nil {
				return err
			}

			conn, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			res, err := conn.QueryWith(cmd.Context(), fetch, args[0], bindArgs(args[1:], flags.raw)...)
			if err != nil {
				return err
			}

			if res.Verb.ReturnsRows() {
				return printJSON(cmd.OutOrStdout(), rowsOutput{Verb: res.Verb, Rows: res.Rows})
			}
			return printJSON(cmd.OutOrStdout(), affectedOutput{Verb: res.Verb, RowsAffected: res.RowsAffected})
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newRowCmd(a *app) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "row SQL [ARGS...]",
		Short: "Print the first row, or null when there is none",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetch, err := database.ParseFetch(flags.fetch)
			if err != nil {
				return err
			}

			conn, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			row, err := conn.RowWith(cmd.Context(), fetch, args[0], bindArgs(args[1:], flags.raw)...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), row)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newColumnCmd(a *app) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "column SQL [ARGS...]",
		Short: "Print the first column of every row",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			values, err := conn.Column(cmd.Context(), args[0], bindArgs(args[1:], flags.raw)...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), values)
		},
	}
	flags.register(cmd, false)
	return cmd
}
