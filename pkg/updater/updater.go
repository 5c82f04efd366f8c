package updater

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/xerrors"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/crossover-sources/pkg/downloader"
	"github.com/aquasecurity/crossover-sources/pkg/httpclient"
	"github.com/aquasecurity/crossover-sources/pkg/listing"
	"github.com/aquasecurity/crossover-sources/pkg/metadata"
	"github.com/aquasecurity/crossover-sources/pkg/release"
	"github.com/aquasecurity/crossover-sources/pkg/types"
)

const (
	DefaultURL    = "https://media.codeweavers.com/pub/crossover/source"
	DefaultFamily = "crossover-sources"

	// Apache autoindex renders a <hr> row and a "Parent Directory" row before the entries.
	DefaultHeaderRows = 2
)

type Option struct {
	URL        string
	Family     string
	HeaderRows int
	Dir        string
	Policy     types.Policy
	RetryMax   int
	Timeout    time.Duration
	Progress   bool
}

type Updater struct {
	url        string
	headerRows int
	policy     types.Policy

	lister     *listing.Fetcher
	extractor  release.Extractor
	downloader downloader.Downloader
	meta       metadata.Client
	clock      clock.Clock
}

func New(opt Option) Updater {
	if opt.URL == "" {
		opt.URL = DefaultURL
	}
	if opt.Family == "" {
		opt.Family = DefaultFamily
	}
	if opt.Dir == "" {
		opt.Dir = "."
	}
	if opt.Policy == "" {
		opt.Policy = types.PolicyRecency
	}

	client := httpclient.New(httpclient.Option{
		RetryMax: opt.RetryMax,
		Timeout:  opt.Timeout,
	})

	return Updater{
		url:        opt.URL,
		headerRows: opt.HeaderRows,
		policy:     opt.Policy,

		lister:    listing.New(client, listing.Option{URL: opt.URL}),
		extractor: release.NewExtractor(opt.Family),
		downloader: downloader.New(client, downloader.Option{
			Dir:      opt.Dir,
			Progress: opt.Progress,
		}),
		meta:  metadata.New(opt.Dir),
		clock: clock.RealClock{},
	}
}

// Latest fetches the listing and selects the latest release without downloading it.
func (u *Updater) Latest(ctx context.Context) (types.Release, error) {
	rows, err := u.lister.Fetch(ctx)
	if err != nil {
		return types.Release{}, xerrors.Errorf("listing error: %w", err)
	}

	candidates := u.extractor.Annotate(release.Candidates(rows, u.url, u.headerRows))
	slog.Info("Candidates found", slog.Int("rows", len(rows)), slog.Int("candidates", len(candidates)))

	latest, err := release.Select(candidates, u.policy)
	if err != nil {
		return types.Release{}, xerrors.Errorf("selection error: %w", err)
	}
	slog.Info("Latest release", slog.String("name", latest.Name), slog.String("version", latest.Version),
		slog.String("policy", string(u.policy)))
	return latest, nil
}

// Update downloads the latest release and records its metadata.
func (u *Updater) Update(ctx context.Context) (types.Release, error) {
	start := u.clock.Now()

	latest, err := u.Latest(ctx)
	if err != nil {
		return types.Release{}, err
	}

	if _, err = u.downloader.Download(ctx, latest); err != nil {
		return types.Release{}, xerrors.Errorf("download error: %w", err)
	}

	if err = u.meta.Update(latest); err != nil {
		return types.Release{}, xerrors.Errorf("metadata error: %w", err)
	}

	slog.Info("Update completed", slog.String("name", latest.Name), slog.Duration("elapsed", u.clock.Since(start)))
	return latest, nil
}
