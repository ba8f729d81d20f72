package site

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// passthroughTarget is where a passthrough source lands in the output. A
// source inside the input directory loses that prefix; anything else keeps
// its path relative to the project root.
func (b *Builder) passthroughTarget(src string) string {
	input := b.cfg.InputDir()
	if within(input, src) {
		rel, _ := filepath.Rel(input, src)
		return filepath.Join(b.cfg.OutputDir(), rel)
	}
	root := b.cfg.Root
	if root == "" {
		root = "."
	}
	rel, err := filepath.Rel(root, src)
	if err != nil || !filepath.IsLocal(rel) {
		rel = filepath.Base(src)
	}
	return filepath.Join(b.cfg.OutputDir(), rel)
}

// copyPassthrough copies one source, file or directory, and returns the
// number of files written. Missing sources are skipped.
func (b *Builder) copyPassthrough(src string) (int, error) {
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		b.log.Debug("passthrough source missing, skipped", zap.String("path", src))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("passthrough %s: %w", src, err)
	}
	dst := b.passthroughTarget(src)
	if !info.IsDir() {
		if err := copyFile(src, dst, info.Mode()); err != nil {
			return 0, fmt.Errorf("passthrough %s: %w", src, err)
		}
		return 1, nil
	}

	n := 0
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(src, p)
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		if err := copyFile(p, target, fi.Mode()); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("passthrough %s: %w", src, err)
	}
	return n, nil
}

func copyFile(src, dst string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
