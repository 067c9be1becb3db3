package utils

import (
	"errors"
	"io/fs"
	"path"
	"strings"
)

var errFound = errors.New("found")

// LayeredFS reads each name from the first layer that has it, so a loose
// directory can shadow files from a package.
type LayeredFS []fs.FS

func (l LayeredFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	var firstErr error
	for _, layer := range l {
		if layer == nil {
			continue
		}
		f, err := layer.Open(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil && !errors.Is(err, fs.ErrNotExist) {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// FindByBase walks fsys for a file whose base name without extension
// matches name's, with one of exts. It is the slow path after direct
// lookups miss.
func FindByBase(fsys fs.FS, name string, exts ...string) (string, bool) {
	target := path.Base(name)
	target = strings.TrimSuffix(target, path.Ext(target))
	if target == "" || target == "." {
		return "", false
	}

	var found string
	fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		base := path.Base(p)
		ext := path.Ext(base)
		if strings.TrimSuffix(base, ext) != target {
			return nil
		}
		for _, e := range exts {
			if strings.EqualFold(ext, e) {
				found = p
				return errFound
			}
		}
		return nil
	})
	if found != "" {
		Debug("FS: found %s by deep search as %s", name, found)
	}
	return found, found != ""
}
