package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CatalogEntry pairs a bundle directory with its parsed header.
type CatalogEntry struct {
	Directory    string `json:"directory"`
	HeaderPath   string `json:"header_path"`
	ManifestPath string `json:"manifest_path"`
	Header       Header `json:"header"`
}

// List walks root and returns every finished bundle, ordered by directory
// name. Bundles still being written have no header and are skipped.
func List(root string) ([]CatalogEntry, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("replay root must be provided")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("replay root %s is not a directory", root)
	}

	var entries []CatalogEntry
	//1.- Walk the tree looking for header files.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Name() != headerName {
			return nil
		}
		header, err := ReadHeader(path)
		if err != nil {
			return err
		}
		dir := filepath.Dir(path)
		manifestPath := header.FilePointer
		if !filepath.IsAbs(manifestPath) {
			manifestPath = filepath.Join(dir, manifestPath)
		}
		entries = append(entries, CatalogEntry{Directory: dir, HeaderPath: path, ManifestPath: manifestPath, Header: header})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Directory < entries[j].Directory })
	return entries, nil
}

// MarshalCatalog renders entries as indented JSON for CLI output.
func MarshalCatalog(entries []CatalogEntry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}
