// Package backup reads the optional pre-migration backup manifest the
// validator compares record counts against.
package backup

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

type Manifest struct {
	TotalRecords int64            `json:"total_records"`
	Tables       map[string]int64 `json:"tables,omitempty"`
}

// ReadManifest accepts either a bare JSON document or a zip archive
// containing manifest.json. A missing file is the caller's problem to
// downgrade; malformed content is an error.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest

	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		zr, err := zip.OpenReader(path)
		if err != nil {
			return m, fmt.Errorf("open backup archive: %w", err)
		}
		defer zr.Close()

		for _, f := range zr.File {
			if !strings.HasSuffix(strings.ToLower(f.Name), "manifest.json") {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return m, fmt.Errorf("open %s in archive: %w", f.Name, err)
			}
			defer rc.Close()
			return decode(rc)
		}
		return m, fmt.Errorf("backup archive %s has no manifest.json", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return m, err
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return m, fmt.Errorf("parse backup manifest: %w", err)
	}
	if m.TotalRecords == 0 && len(m.Tables) > 0 {
		for _, n := range m.Tables {
			m.TotalRecords += n
		}
	}
	return m, nil
}
