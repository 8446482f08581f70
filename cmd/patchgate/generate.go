package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchgate/patchgate/llm"
	"github.com/patchgate/patchgate/stream"
)

func newGenerateCmd() *cobra.Command {
	var (
		prompt string
		model  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate patch operations with Gemini and validate them as they stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt == "" {
				return fmt.Errorf("--prompt is required")
			}
			schema, err := loadSchema(flagSchema)
			if err != nil {
				return err
			}
			schemaJSON, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return fmt.Errorf("encode schema: %w", err)
			}

			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			gen, err := llm.NewGeminiGenerator(cmd.Context(), os.Getenv("GEMINI_API_KEY"), model, log)
			if err != nil {
				return err
			}

			printer := newVerdictPrinter(cmd.OutOrStdout())
			session := stream.NewSession(schema, engineOptions(), log, func(v stream.Verdict) {
				printer.print(v.Raw, v.Valid, v.Errors)
			})

			src := llm.GeneratorSource(gen, llm.BuildPrompt(schemaJSON, prompt))
			if err := stream.Run(cmd.Context(), src, session); err != nil {
				return err
			}

			stats := session.Stats()
			printer.summary(stats.Valid, stats.Rejected)
			if stats.Rejected > 0 {
				return fmt.Errorf("%d generated operation(s) rejected", stats.Rejected)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "editing task to send to the model")
	cmd.Flags().StringVar(&model, "model", "", "Gemini model name (default from the llm package)")
	return cmd
}
