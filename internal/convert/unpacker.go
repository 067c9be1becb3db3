package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"linux-particleengine/internal/utils"

	"golang.org/x/sync/errgroup"
)

var ErrPackage = errors.New("convert: bad package")

type FileEntry struct {
	Name   string
	Offset uint32
	Size   uint32
}

// Package is a .pkg archive held in memory. It implements fs.FS so the
// loaders read from it like from a directory.
type Package struct {
	Version string
	Entries []FileEntry

	data  []byte
	index map[string]int
}

func readPkgString(r io.Reader) (string, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return "", err
	}
	if size > 4096 {
		return "", fmt.Errorf("%w: string of %d bytes", ErrPackage, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadPackage parses a .pkg archive.
func ReadPackage(data []byte) (*Package, error) {
	r := bytes.NewReader(data)
	version, err := readPkgString(r)
	if err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrPackage, err)
	}
	utils.Debug("Unpacker: Package Version: %s", version)

	var fileCount uint32
	if err := binary.Read(r, binary.LittleEndian, &fileCount); err != nil {
		return nil, fmt.Errorf("%w: file count: %v", ErrPackage, err)
	}
	utils.Debug("Unpacker: File Count: %d", fileCount)

	pkg := &Package{Version: version, index: make(map[string]int, fileCount)}
	for i := uint32(0); i < fileCount; i++ {
		name, err := readPkgString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrPackage, i, err)
		}
		var offset, size uint32
		if err := binary.Read(r, binary.LittleEndian, &offset); err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", ErrPackage, name, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", ErrPackage, name, err)
		}
		pkg.index[path.Clean(name)] = len(pkg.Entries)
		pkg.Entries = append(pkg.Entries, FileEntry{Name: path.Clean(name), Offset: offset, Size: size})
	}

	start := len(data) - r.Len()
	pkg.data = data[start:]
	for _, e := range pkg.Entries {
		if uint64(e.Offset)+uint64(e.Size) > uint64(len(pkg.data)) {
			return nil, fmt.Errorf("%w: %s runs past the end", ErrPackage, e.Name)
		}
	}
	return pkg, nil
}

// OpenPackage reads a .pkg file from disk.
func OpenPackage(pkgPath string) (*Package, error) {
	utils.Debug("Unpacker: Opening package %s", pkgPath)
	data, err := os.ReadFile(pkgPath)
	if err != nil {
		return nil, err
	}
	return ReadPackage(data)
}

// Bytes returns an entry's contents without copying.
func (p *Package) Bytes(name string) ([]byte, bool) {
	i, ok := p.index[path.Clean(name)]
	if !ok {
		return nil, false
	}
	e := p.Entries[i]
	return p.data[e.Offset : e.Offset+e.Size], true
}

func (p *Package) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if data, ok := p.Bytes(name); ok {
		return &pkgFile{Reader: bytes.NewReader(data), info: pkgInfo{name: path.Base(name), size: int64(len(data))}}, nil
	}
	if entries := p.dir(name); entries != nil {
		return &pkgDir{info: pkgInfo{name: path.Base(name), dir: true}, entries: entries}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// dir lists the direct children of a directory, or nil if there are none.
func (p *Package) dir(name string) []fs.DirEntry {
	prefix := ""
	if name != "." {
		prefix = name + "/"
	}
	seen := map[string]bool{}
	var entries []fs.DirEntry
	for _, e := range p.Entries {
		if !strings.HasPrefix(e.Name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(e.Name, prefix)
		child, _, isDir := strings.Cut(rest, "/")
		if seen[child] {
			continue
		}
		seen[child] = true
		info := pkgInfo{name: child, dir: isDir}
		if !isDir {
			info.size = int64(e.Size)
		}
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries
}

// Extract writes every entry below outputDir.
func (p *Package) Extract(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	for i, entry := range p.Entries {
		if i%10 == 0 || i == len(p.Entries)-1 {
			utils.Debug("Unpacker: Extracting file %d/%d: %s", i+1, len(p.Entries), entry.Name)
		}
		destPath := filepath.Join(outputDir, filepath.FromSlash(entry.Name))
		if !strings.HasPrefix(destPath, filepath.Clean(outputDir)+string(os.PathSeparator)) {
			return fmt.Errorf("%w: %s escapes %s", ErrPackage, entry.Name, outputDir)
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}
		data, _ := p.Bytes(entry.Name)
		if err := os.WriteFile(destPath, data, 0644); err != nil {
			return err
		}
	}
	utils.Debug("Unpacker: Extraction completed successfully")
	return nil
}

// ConvertTextures decodes every .tex in fsys to a PNG under outDir, at
// most ten at a time.
func ConvertTextures(fsys fs.FS, outDir string) (int, error) {
	utils.Info("Starting bulk texture conversion in parallel...")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, err
	}

	var converted int32
	var g errgroup.Group
	g.SetLimit(10)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".tex") {
			return err
		}
		g.Go(func() error {
			img, err := LoadImage(fsys, p)
			if err != nil {
				utils.Error("Failed to convert %s: %v", p, err)
				return nil
			}
			dest := filepath.Join(outDir, filepath.FromSlash(strings.TrimSuffix(p, ".tex")+".png"))
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return err
			}
			f, err := os.Create(dest)
			if err != nil {
				return err
			}
			if err := png.Encode(f, img); err != nil {
				f.Close()
				os.Remove(dest)
				return fmt.Errorf("encode %s: %w", dest, err)
			}
			atomic.AddInt32(&converted, 1)
			return f.Close()
		})
		return nil
	})
	if gerr := g.Wait(); err == nil {
		err = gerr
	}
	utils.Info("Bulk conversion finished. Processed %d textures.", converted)
	return int(converted), err
}

type pkgInfo struct {
	name string
	size int64
	dir  bool
}

func (i pkgInfo) Name() string       { return i.name }
func (i pkgInfo) Size() int64        { return i.size }
func (i pkgInfo) ModTime() time.Time { return time.Time{} }
func (i pkgInfo) IsDir() bool        { return i.dir }
func (i pkgInfo) Sys() any           { return nil }

func (i pkgInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0555
	}
	return 0444
}

type pkgFile struct {
	*bytes.Reader
	info pkgInfo
}

func (f *pkgFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *pkgFile) Close() error               { return nil }

type pkgDir struct {
	info    pkgInfo
	entries []fs.DirEntry
	offset  int
}

func (d *pkgDir) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *pkgDir) Close() error               { return nil }

func (d *pkgDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: fs.ErrInvalid}
}

func (d *pkgDir) ReadDir(n int) ([]fs.DirEntry, error) {
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.offset += n
	return rest[:n], nil
}
