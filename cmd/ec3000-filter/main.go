package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/provide-io/ec3000/go/ec3000/pkg"
	"github.com/provide-io/ec3000/go/ec3000/pkg/logging"
	"github.com/provide-io/ec3000/go/ec3000/pkg/readings"
	"github.com/provide-io/ec3000/go/ec3000/pkg/whitelist"
)

const version = "0.1.0"

// errDenied makes `check` exit 1 without printing anything further.
var errDenied = errors.New("one or more identifiers denied")

type options struct {
	whitelistPath string
	strict        bool
	logLevel      string
	versionFlag   bool

	field      int
	outputPath string
}

func getBuildTimestamp() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "ec3000-filter",
		Short:         "Admit EC3000 readings from whitelisted transmitters",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.versionFlag {
				fmt.Fprintf(stdout, "ec3000-filter %s\n", version)
				fmt.Fprintf(stdout, "Built: %s\n", getBuildTimestamp())
				return nil
			}
			return cmd.Help()
		},
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.whitelistPath, "whitelist", "w", "", "Whitelist file, text or .json (default $"+pkg.EnvWhitelist+" or built-in table)")
	flags.BoolVar(&opts.strict, "strict", false, "Reject identifiers that are not four uppercase hex characters")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&opts.versionFlag, "version", "V", false, "Show version information")

	rootCmd.AddCommand(newCheckCmd(opts), newFilterCmd(opts), newListCmd(opts))
	return rootCmd
}

func (o *options) setup(cmd *cobra.Command) (hclog.Logger, *whitelist.Whitelist, error) {
	logger := logging.NewLogger("ec3000-filter", logging.ResolveLogLevel(o.logLevel), cmd.ErrOrStderr())
	wl, err := pkg.LoadWhitelist(o.whitelistPath, o.strict, logger)
	if err != nil {
		return nil, nil, err
	}
	return logger, wl, nil
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check ID...",
		Short: "Report whether each ID is whitelisted; exits 1 if any is not",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, wl, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			denied := false
			for _, r := range pkg.CheckIdentifiers(wl, args) {
				verdict := "allowed"
				if !r.Allowed {
					verdict = "denied"
					denied = true
				}
				if r.Label != "" {
					fmt.Fprintf(out, "%s\t%s\t%s\n", r.ID, verdict, r.Label)
				} else {
					fmt.Fprintf(out, "%s\t%s\n", r.ID, verdict)
				}
			}
			if denied {
				return errDenied
			}
			return nil
		},
	}
}

func newFilterCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter [FILE]",
		Short: "Copy readings from whitelisted devices to the output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.field < 0 {
				return fmt.Errorf("invalid --field %d: must be zero or greater", opts.field)
			}
			logger, wl, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open readings: %w", err)
				}
				defer f.Close()
				in = f
			}

			out := cmd.OutOrStdout()
			if opts.outputPath != "" {
				f, err := os.OpenFile(opts.outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
				if err != nil {
					return fmt.Errorf("failed to create output: %w", err)
				}
				defer func() {
					if err := f.Close(); err != nil {
						logger.Error("Failed to close output file", "error", err)
					}
				}()
				out = f
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			f := &readings.Filter{Whitelist: wl, Field: opts.field, Logger: logger.Named("filter")}
			stats, err := f.Run(ctx, in, out)
			logger.Info("📊 Filter finished",
				"lines", stats.Lines,
				"admitted", stats.Admitted,
				"rejected", stats.Rejected,
				"malformed", stats.Malformed,
				"bytes", stats.Bytes)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.field, "field", "f", 0, "Zero-based index of the ID field in each reading")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write admitted readings to this file instead of stdout")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the active whitelist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, wl, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range wl.Entries() {
				if e.Label != "" {
					fmt.Fprintf(out, "%s\t%s\n", e.ID, e.Label)
				} else {
					fmt.Fprintln(out, e.ID)
				}
			}
			fmt.Fprintf(out, "Entries: %d | Fingerprint: %s\n", wl.Size(), wl.Fingerprint())
			return nil
		},
	}
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errDenied) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
