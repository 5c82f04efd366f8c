package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/crossover-sources/pkg/downloader"
	"github.com/aquasecurity/crossover-sources/pkg/listing"
	"github.com/aquasecurity/crossover-sources/pkg/release"
	"github.com/aquasecurity/crossover-sources/pkg/types"
	"github.com/aquasecurity/crossover-sources/pkg/updater"
)

const (
	exitError              = 1
	exitListingUnavailable = 2
	exitNoEligibleRelease  = 3
	exitDownloadFailure    = 4
)

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		code, kind := classify(err)
		slog.Error("Update failed", slog.String("kind", kind), slog.String("error", fmt.Sprintf("%+v", err)))
		os.Exit(code)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	var (
		opt    updater.Option
		policy string
		debug  bool
	)

	cmd := &cobra.Command{
		Use:           "crossover-sources",
		Short:         "Download the latest CrossOver source tarball and record its metadata",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			switch p := types.Policy(policy); p {
			case types.PolicyRecency, types.PolicySemver:
				opt.Policy = p
			default:
				return xerrors.Errorf("unknown policy %q (want %q or %q)", policy, types.PolicyRecency, types.PolicySemver)
			}

			u := updater.New(opt)
			latest, err := u.Update(context.Background())
			if err != nil {
				return err
			}

			b, err := json.Marshal(latest)
			if err != nil {
				return xerrors.Errorf("failed to marshal JSON: %w", err)
			}
			_, err = fmt.Fprintln(out, string(b))
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opt.URL, "url", updater.DefaultURL, "directory listing URL, also the base of download URLs")
	flags.StringVar(&opt.Family, "family", updater.DefaultFamily, "substring identifying the artifact family")
	flags.IntVar(&opt.HeaderRows, "header-rows", updater.DefaultHeaderRows, "number of leading listing rows to skip")
	flags.StringVar(&opt.Dir, "output-dir", ".", "directory to write the artifact and its metadata to")
	flags.StringVar(&policy, "policy", string(types.PolicyRecency), "selection policy: recency or semver")
	flags.IntVar(&opt.RetryMax, "retry-max", 0, "HTTP retries after the first attempt")
	flags.DurationVar(&opt.Timeout, "timeout", 0, "HTTP timeout per attempt (0 means none)")
	flags.BoolVar(&opt.Progress, "progress", false, "show a download progress bar on stderr")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

// classify maps an error to an exit code and a message naming its kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, listing.ErrUnavailable):
		return exitListingUnavailable, "listing unavailable"
	case errors.Is(err, release.ErrNoEligibleRelease):
		return exitNoEligibleRelease, "no eligible release"
	case errors.Is(err, downloader.ErrDownloadFailure):
		return exitDownloadFailure, "download failure"
	default:
		return exitError, "error"
	}
}
