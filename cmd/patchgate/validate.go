package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchgate/patchgate"
	"github.com/patchgate/patchgate/llm"
	"github.com/patchgate/patchgate/stream"
)

func newValidateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate patch operations (one JSON object per line) against the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := loadSchema(flagSchema)
			if err != nil {
				return err
			}

			var r io.Reader = os.Stdin
			if input != "" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				r = f
			}

			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			printer := newVerdictPrinter(cmd.OutOrStdout())
			session := stream.NewSession(schema, engineOptions(), log, func(v stream.Verdict) {
				printer.print(v.Raw, v.Valid, v.Errors)
			})
			if err := stream.Run(cmd.Context(), llm.ReaderSource{R: r}, session); err != nil {
				return err
			}

			stats := session.Stats()
			printer.summary(stats.Valid, stats.Rejected)
			if stats.Rejected > 0 {
				return fmt.Errorf("%d operation(s) rejected", stats.Rejected)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "read operations from this file instead of stdin")
	return cmd
}

func newPointerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pointer POINTER...",
		Short: "Check whether JSON Pointers are reachable in the schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := loadSchema(flagSchema)
			if err != nil {
				return err
			}

			printer := newVerdictPrinter(cmd.OutOrStdout())
			rejected := 0
			opts := engineOptions()
			for _, ptr := range args {
				valid := patchgate.IsValidPointerOpts(ptr, schema, opts)
				if !valid {
					rejected++
				}
				printer.print(ptr, valid, nil)
			}
			if rejected > 0 {
				return fmt.Errorf("%d pointer(s) not reachable", rejected)
			}
			return nil
		},
	}
}
