// Command ckey encodes, decodes and prefixes combined foreign/primary keys
// and runs prefix scans over a reverse index built from a pairs file.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/INLOpen/nexusjoin/config"
	"github.com/spf13/cobra"
)

// rootOptions holds the global flags and the state derived from them.
type rootOptions struct {
	configPath string
	fkType     string
	pkType     string

	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ckey",
		Short: "Combined foreign key tool",
		Long: `Work with combined keys of the form [4-byte length][foreign key][primary key].

Keys are typed by serde name (string, int32, int64, bytes, uuid). When a type
flag is not given the configured default_key_serde is used.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the configuration file")
	cmd.PersistentFlags().StringVar(&opts.fkType, "fk-type", "", "foreign key serde name (default from config)")
	cmd.PersistentFlags().StringVar(&opts.pkType, "pk-type", "", "primary key serde name (default from config)")

	cmd.AddCommand(newEncodeCommand(opts))
	cmd.AddCommand(newPrefixCommand(opts))
	cmd.AddCommand(newDecodeCommand(opts))
	cmd.AddCommand(newScanCommand(opts))

	return cmd
}

func (o *rootOptions) load() error {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, closer, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	o.cfg, o.logger, o.logCloser = cfg, logger, closer
	return nil
}

// close releases the log file, if one was opened.
func (o *rootOptions) close() error {
	if o.logCloser == nil {
		return nil
	}
	return o.logCloser.Close()
}

// execute runs cmd and releases what load acquired, whether or not the
// command succeeded. cobra skips post-run hooks after a RunE error.
func execute(cmd *cobra.Command, opts *rootOptions) error {
	err := cmd.Execute()
	if cerr := opts.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func main() {
	opts := &rootOptions{}
	if err := execute(newRootCommand(opts), opts); err != nil {
		os.Exit(1)
	}
}
