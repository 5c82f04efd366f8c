package listing

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/samber/lo"
	"golang.org/x/net/html/charset"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/crossover-sources/pkg/types"
)

const (
	NameColumn         = "Name"
	LastModifiedColumn = "Last modified"
)

// ErrUnavailable is returned when the listing can't be fetched or doesn't contain a usable table.
var ErrUnavailable = xerrors.New("listing unavailable")

// Layouts used by Apache and nginx autoindex pages.
var timeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02-Jan-2006 15:04",
	"02-Jan-2006 15:04:05",
}

type Option struct {
	URL string
}

type Fetcher struct {
	http   *retryablehttp.Client
	url    string
	logger *slog.Logger
}

func New(client *retryablehttp.Client, opt Option) *Fetcher {
	return &Fetcher{
		http:   client,
		url:    opt.URL,
		logger: slog.With(slog.String("component", "listing")),
	}
}

// Fetch downloads the listing page and returns its rows in page order.
func (f *Fetcher) Fetch(ctx context.Context) ([]types.Row, error) {
	f.logger.Info("Fetching listing", slog.String("url", f.url))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, xerrors.Errorf("unable to create a HTTP request: %v: %w", err, ErrUnavailable)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("http error (%s): %v: %w", f.url, err, ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("unexpected status %q from %s: %w", resp.Status, f.url, ErrUnavailable)
	}

	rows, err := Parse(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, xerrors.Errorf("listing parse error (%s): %w", f.url, err)
	}
	f.logger.Info("Listing fetched", slog.Int("rows", len(rows)))
	return rows, nil
}

// Parse reads the first table of an HTML listing.
// The first <tr> provides the column names, every following <tr> becomes a row.
func Parse(r io.Reader, contentType string) ([]types.Row, error) {
	body, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, xerrors.Errorf("charset error: %v: %w", err, ErrUnavailable)
	}

	d, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, xerrors.Errorf("can't create new goquery doc: %v: %w", err, ErrUnavailable)
	}

	table := d.Find("table").First()
	if table.Length() == 0 {
		return nil, xerrors.Errorf("no table found: %w", ErrUnavailable)
	}

	trs := table.Find("tr")
	if trs.Length() == 0 {
		return nil, xerrors.Errorf("empty table: %w", ErrUnavailable)
	}

	header := lo.Map(cells(trs.First()), func(s *goquery.Selection, _ int) string {
		return strings.TrimSpace(s.Text())
	})
	nameIdx := lo.IndexOf(header, NameColumn)
	if nameIdx < 0 {
		return nil, xerrors.Errorf("no %q column in %q: %w", NameColumn, header, ErrUnavailable)
	}
	modifiedIdx := lo.IndexOf(header, LastModifiedColumn)

	var rows []types.Row
	trs.Slice(1, goquery.ToEnd).Each(func(_ int, tr *goquery.Selection) {
		cs := cells(tr)
		row := types.Row{
			Columns: make(map[string]string),
		}
		for i, c := range cs {
			switch {
			case i == nameIdx:
				row.Name = nameFromCell(c)
			case i == modifiedIdx:
				row.LastModified = parseTime(c.Text())
			case i < len(header) && header[i] != "":
				row.Columns[header[i]] = strings.TrimSpace(c.Text())
			}
		}
		rows = append(rows, row)
	})
	return rows, nil
}

// cells returns the th/td cells of a row, repeating cells that span several columns.
func cells(tr *goquery.Selection) []*goquery.Selection {
	var cs []*goquery.Selection
	tr.ChildrenFiltered("th, td").Each(func(_ int, c *goquery.Selection) {
		span := 1
		if v, ok := c.Attr("colspan"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 1 {
				span = n
			}
		}
		for range span {
			cs = append(cs, c)
		}
	})
	return cs
}

// nameFromCell returns the entry name of a cell.
// Servers shorten long names in the link text, e.g. Apache renders
// `<a href="crossover-sources-21.1.0.tar.gz">crossover-sources-21.1..&gt;</a>`.
// In this case we should take `href`.
func nameFromCell(cell *goquery.Selection) string {
	name := strings.TrimSpace(cell.Text())
	a := cell.Find("a").First()
	if a.Length() == 0 {
		return name
	}
	link := strings.TrimSpace(a.Text())
	if href, ok := a.Attr("href"); ok && (strings.HasSuffix(link, "..>") || strings.HasSuffix(link, "...")) {
		if unescaped, err := url.PathUnescape(href); err == nil {
			href = unescaped
		}
		return href
	}
	return link
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
