package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/crossover-sources/pkg/fileutil"
	"github.com/aquasecurity/crossover-sources/pkg/types"
)

const fileSuffix = ".json"

type Client struct {
	dir string
}

// Path returns the path of the metadata file for an artifact
func Path(dir, name string) string {
	return filepath.Join(dir, name+fileSuffix)
}

func New(dir string) Client {
	return Client{
		dir: dir,
	}
}

// Get reads the metadata recorded for an artifact
func (c *Client) Get(name string) (types.Release, error) {
	f, err := os.Open(Path(c.dir, name))
	if err != nil {
		return types.Release{}, xerrors.Errorf("unable to open a file: %w", err)
	}
	defer f.Close()

	var release types.Release
	if err = json.NewDecoder(f).Decode(&release); err != nil {
		return types.Release{}, xerrors.Errorf("unable to decode metadata: %w", err)
	}
	return release, nil
}

// Update writes `<name>.json` for the release, replacing any previous file.
func (c *Client) Update(release types.Release) error {
	if err := fileutil.WriteJSON(Path(c.dir, release.Name), release); err != nil {
		return xerrors.Errorf("unable to write metadata: %w", err)
	}
	return nil
}
