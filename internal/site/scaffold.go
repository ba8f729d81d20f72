package site

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed all:scaffold
var scaffold embed.FS

// InitResult lists what Init wrote and what it left alone.
type InitResult struct {
	Created []string
	Skipped []string
}

// Init writes a starter site into dir: config, layout, partials, a home
// page with the logo and the thoughts carousel, styles and a thoughts file.
// Existing files are kept unless overwrite is set.
func Init(dir string, overwrite bool) (*InitResult, error) {
	root, err := fs.Sub(scaffold, "scaffold")
	if err != nil {
		return nil, err
	}
	res := &InitResult{}
	err = fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if _, err := os.Stat(target); err == nil && !overwrite {
			res.Skipped = append(res.Skipped, p)
			return nil
		}
		data, err := fs.ReadFile(root, p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return err
		}
		res.Created = append(res.Created, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("site: init: %w", err)
	}
	return res, nil
}
