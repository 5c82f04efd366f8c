package downloader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/crossover-sources/pkg/fileutil"
	"github.com/aquasecurity/crossover-sources/pkg/types"
)

// ErrDownloadFailure is returned when the artifact can't be retrieved or saved.
var ErrDownloadFailure = xerrors.New("download failure")

type Option struct {
	Dir      string
	Progress bool
}

type Downloader struct {
	http     *retryablehttp.Client
	dir      string
	progress bool
}

func New(client *retryablehttp.Client, opt Option) Downloader {
	if opt.Dir == "" {
		opt.Dir = "."
	}
	return Downloader{
		http:     client,
		dir:      opt.Dir,
		progress: opt.Progress,
	}
}

// Download saves the release artifact as `<dir>/<name>` and returns the path.
// Nothing is written under that path unless the whole body was received.
func (d Downloader) Download(ctx context.Context, release types.Release) (string, error) {
	if !validFileName(release.Name) {
		return "", xerrors.Errorf("invalid file name %q: %w", release.Name, ErrDownloadFailure)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, release.URL, nil)
	if err != nil {
		return "", xerrors.Errorf("unable to create a HTTP request: %v: %w", err, ErrDownloadFailure)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return "", xerrors.Errorf("http error (%s): %v: %w", release.URL, err, ErrDownloadFailure)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", xerrors.Errorf("unexpected status %q from %s: %w", resp.Status, release.URL, ErrDownloadFailure)
	}

	var body io.Reader = resp.Body
	if d.progress {
		bar := pb.Full.Start64(resp.ContentLength)
		defer bar.Finish()
		body = bar.NewProxyReader(resp.Body)
	}

	filePath := filepath.Join(d.dir, release.Name)
	slog.Info("Saving artifact", slog.String("url", release.URL), slog.String("path", filePath))
	n, err := fileutil.WriteFile(filePath, body)
	if err != nil {
		return "", xerrors.Errorf("can't save %s: %v: %w", filePath, err, ErrDownloadFailure)
	}
	slog.Info("Artifact saved", slog.String("path", filePath), slog.Int64("bytes", n))
	return filePath, nil
}

// validFileName reports whether name can be used as a file in the output directory.
func validFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
