package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patchgate/patchgate"
	"github.com/patchgate/patchgate/pkg/patchapply"
)

func newApplyCmd() *cobra.Command {
	var (
		docPath string
		input   string
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Validate a patch against the schema and apply it to a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := loadSchema(flagSchema)
			if err != nil {
				return err
			}
			if docPath == "" {
				return fmt.Errorf("--doc is required")
			}
			doc, err := os.ReadFile(docPath)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
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
			ops, err := readOperations(r)
			if err != nil {
				return err
			}

			out, err := patchapply.Apply(doc, ops, schema)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&docPath, "doc", "", "path to the JSON document to patch")
	cmd.Flags().StringVar(&input, "input", "", "read operations from this file instead of stdin")
	return cmd
}

// readOperations accepts either one JSON operation per line or a single JSON
// array of operations.
func readOperations(r io.Reader) ([]patchgate.Operation, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read operations: %w", err)
	}

	var batch []patchgate.Operation
	if err := json.Unmarshal(data, &batch); err == nil {
		return batch, nil
	}

	var ops []patchgate.Operation
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var op patchgate.Operation
		if err := json.Unmarshal([]byte(text), &op); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}
