package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/INLOpen/nexusjoin/fkindex"
	"github.com/spf13/cobra"
)

func newScanCommand(opts *rootOptions) *cobra.Command {
	var pairsPath string

	cmd := &cobra.Command{
		Use:   "scan <foreign-key>",
		Short: "Load a pairs file into a reverse index and list the primary keys of one foreign key",
		Long: `Load a pairs file into an in-memory reverse index and list every live
primary key that references the given foreign key.

Each line of the pairs file is one operation:

  put <foreign-key> <primary-key> [value]
  delete <foreign-key> <primary-key>

Blank lines and lines starting with # are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), opts, pairsPath, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&pairsPath, "pairs", "p", "", "path to the pairs file (required)")
	_ = cmd.MarkFlagRequired("pairs")
	return cmd
}

func runScan(ctx context.Context, opts *rootOptions, pairsPath, foreignKeyArg string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	schema, err := opts.newSchema()
	if err != nil {
		return err
	}
	compressor, err := opts.cfg.NewCompressor()
	if err != nil {
		return err
	}
	tp, cleanup, err := initTracerProvider(opts.cfg.Tracing, opts.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := fkindex.NewStore(schema, fkindex.StoreOptions{
		Compressor: compressor,
		Logger:     opts.logger,
		Tracer:     tp.Tracer("github.com/INLOpen/nexusjoin/cmd/ckey"),
	})
	if err != nil {
		return err
	}

	file, err := os.Open(pairsPath)
	if err != nil {
		return fmt.Errorf("failed to open pairs file %s: %w", pairsPath, err)
	}
	defer file.Close()
	if err := loadPairs(ctx, opts, store, file); err != nil {
		return fmt.Errorf("%s: %w", pairsPath, err)
	}

	fkType, _ := opts.keyTypes()
	fk, err := parseKey(fkType, foreignKeyArg)
	if err != nil {
		return err
	}
	entries, err := store.Scan(ctx, fk)
	if err != nil {
		return err
	}
	opts.logger.Debug("Scan finished", "foreign_key", foreignKeyArg, "entries", len(entries), "versions", store.Len())
	for _, e := range entries {
		if _, err := fmt.Fprintf(out, "primary=%s value=%s\n", formatKey(e.Key.PrimaryKey()), e.Value); err != nil {
			return err
		}
	}
	return nil
}

func loadPairs(ctx context.Context, opts *rootOptions, store *fkindex.Store[any, any], r io.Reader) error {
	fkType, pkType := opts.keyTypes()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return fmt.Errorf("line %d: expected '<op> <foreign-key> <primary-key>'", lineNo)
		}
		fk, err := parseKey(fkType, fields[1])
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		pk, err := parseKey(pkType, fields[2])
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		switch op := strings.ToLower(fields[0]); op {
		case "put":
			var value []byte
			if len(fields) > 3 {
				value = []byte(strings.Join(fields[3:], " "))
			}
			err = store.Put(ctx, fk, pk, value)
		case "delete":
			if len(fields) != 3 {
				return fmt.Errorf("line %d: delete takes no value", lineNo)
			}
			err = store.Delete(ctx, fk, pk)
		default:
			return fmt.Errorf("line %d: unknown operation %q", lineNo, op)
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}
