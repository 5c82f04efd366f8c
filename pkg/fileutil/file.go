package fileutil

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

// WriteFile streams r into filePath atomically: the data goes to a hidden
// temporary file in the same directory which is renamed over filePath once complete.
// On error filePath is left untouched.
func WriteFile(filePath string, r io.Reader) (int64, error) {
	dir, name := filepath.Split(filePath)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return 0, xerrors.Errorf("unable to create a directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return 0, xerrors.Errorf("unable to create a temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName) // no-op after a successful rename
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return n, xerrors.Errorf("failed to save %s: %w", filePath, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return n, xerrors.Errorf("chmod error: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return n, xerrors.Errorf("sync error: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return n, xerrors.Errorf("close error: %w", err)
	}

	if err = os.Rename(tmpName, filePath); err != nil {
		return n, xerrors.Errorf("unable to rename %s: %w", tmpName, err)
	}
	return n, nil
}

func WriteJSON(filePath string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err = WriteFile(filePath, bytes.NewReader(b)); err != nil {
		return xerrors.Errorf("json write error: %w", err)
	}
	return nil
}
