package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"path"
	"strings"

	"linux-particleengine/internal/utils"

	"github.com/mauserzjeh/dxt"
	"github.com/pierrec/lz4/v4"
)

var ErrTexture = errors.New("convert: bad texture")

// MaxTextureSize bounds each mip dimension.
const MaxTextureSize = 16384

// Texture formats stored in a TEXV0005 header.
const (
	FormatRGBA8888 = 0
	FormatDXT5     = 4
	FormatDXT3     = 6
	FormatDXT1     = 7
	FormatRG88     = 8
	FormatR8       = 9
)

// texReader reads little endian fields and keeps the first error.
type texReader struct {
	r   io.Reader
	err error
}

func (t *texReader) uint32() uint32 {
	var v uint32
	if t.err == nil {
		t.err = binary.Read(t.r, binary.LittleEndian, &v)
	}
	return v
}

// magic reads an 8 byte tag and its terminating zero.
func (t *texReader) magic() string {
	b := make([]byte, 9)
	if t.err == nil {
		_, t.err = io.ReadFull(t.r, b)
	}
	return string(bytes.TrimRight(b, "\x00"))
}

// bytes reads n bytes, growing the buffer as data arrives so a bogus
// length on a short stream fails without a large allocation.
func (t *texReader) bytes(n uint32) []byte {
	if t.err != nil {
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(t.r, int64(n)))
	if err == nil && len(b) < int(n) {
		err = io.ErrUnexpectedEOF
	}
	t.err = err
	return b
}

// TexHeader describes a .tex file.
type TexHeader struct {
	Format    uint32
	Width     int
	Height    int
	Container string
	Images    int
}

// DecodeTex decodes the first mip of the first image in a .tex stream,
// cropped to the texture's logical size.
func DecodeTex(r io.Reader) (*image.RGBA, TexHeader, error) {
	t := &texReader{r: r}
	var h TexHeader

	if magic := t.magic(); t.err == nil && magic != "TEXV0005" {
		return nil, h, fmt.Errorf("%w: magic %q", ErrTexture, magic)
	}
	t.magic() // TEXI0001
	h.Format = t.uint32()
	t.uint32() // flags
	t.uint32() // texture width
	t.uint32() // texture height
	h.Width = int(t.uint32())
	h.Height = int(t.uint32())
	t.uint32()
	h.Container = t.magic()
	h.Images = int(t.uint32())
	if h.Container == "TEXB0003" {
		t.uint32() // free image format
	}
	if t.err != nil {
		return nil, h, fmt.Errorf("%w: header: %v", ErrTexture, t.err)
	}
	if h.Images == 0 {
		return nil, h, fmt.Errorf("%w: no image found", ErrTexture)
	}
	utils.Debug("    Format: %d, Target Size: %dx%d, Container: %s", h.Format, h.Width, h.Height, h.Container)

	mips := t.uint32()
	if t.err == nil && mips == 0 {
		return nil, h, fmt.Errorf("%w: no mipmaps", ErrTexture)
	}
	mW, mH := t.uint32(), t.uint32()
	var compressed bool
	var decompressedSize uint32
	if h.Container != "TEXB0001" {
		compressed = t.uint32() == 1
		decompressedSize = t.uint32()
	}
	size := t.uint32()
	if t.err != nil {
		return nil, h, fmt.Errorf("%w: mip: %v", ErrTexture, t.err)
	}
	if mW == 0 || mH == 0 || mW > MaxTextureSize || mH > MaxTextureSize {
		return nil, h, fmt.Errorf("%w: mip size %dx%d", ErrTexture, mW, mH)
	}
	// Raw pixels never exceed RGBA, or one 16 byte block per 4x4 tile for
	// tiny block compressed mips; LZ4 may add its worst case overhead.
	raw := max(int(mW)*int(mH)*4, int((mW+3)/4)*int((mH+3)/4)*16)
	limit := raw
	if compressed {
		limit = lz4.CompressBlockBound(raw)
		if int(decompressedSize) > raw {
			return nil, h, fmt.Errorf("%w: %d decompressed bytes for a %dx%d mip", ErrTexture, decompressedSize, mW, mH)
		}
	}
	if int(size) > limit {
		return nil, h, fmt.Errorf("%w: %d bytes for a %dx%d mip", ErrTexture, size, mW, mH)
	}
	data := t.bytes(size)
	if t.err != nil {
		return nil, h, fmt.Errorf("%w: mip: %v", ErrTexture, t.err)
	}

	if compressed {
		utils.Debug("    Decompressing LZ4: %d -> %d", len(data), decompressedSize)
		out := make([]byte, decompressedSize)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, h, fmt.Errorf("%w: lz4: %v", ErrTexture, err)
		}
		data = out[:n]
	}

	pix, err := decodePixels(h.Format, data, int(mW), int(mH))
	if err != nil {
		return nil, h, err
	}
	img := &image.RGBA{Pix: pix, Stride: int(mW) * 4, Rect: image.Rect(0, 0, int(mW), int(mH))}
	if h.Width > 0 && h.Height > 0 && (h.Width < int(mW) || h.Height < int(mH)) {
		img = img.SubImage(image.Rect(0, 0, h.Width, h.Height)).(*image.RGBA)
	}
	return img, h, nil
}

func decodePixels(format uint32, data []byte, w, h int) ([]byte, error) {
	blocks := ((w + 3) / 4) * ((h + 3) / 4)
	rgba := w * h * 4
	size := len(data)

	switch {
	case size == rgba:
		utils.Debug("    Type: RGBA")
		return data, nil
	case format == FormatR8 && size == rgba/4:
		utils.Debug("    Type: R8")
		pix := make([]byte, rgba)
		for i, v := range data {
			pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = v, v, v, 255
		}
		return pix, nil
	case format == FormatRG88 && size == rgba/2:
		// Particle masks keep their opacity in the second channel.
		utils.Debug("    Type: RG88")
		pix := make([]byte, rgba)
		for i := 0; i < w*h; i++ {
			lum := data[i*2+1]
			pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = lum, lum, lum, lum
		}
		return pix, nil
	case format == FormatDXT5 || format == FormatDXT3 || size == blocks*16:
		utils.Debug("    Type: DXT5")
		pix, err := dxt.DecodeDXT5(data, uint(w), uint(h))
		if err != nil {
			return nil, fmt.Errorf("%w: dxt5: %v", ErrTexture, err)
		}
		return pix, nil
	case format == FormatDXT1 || size == blocks*8:
		utils.Debug("    Type: DXT1")
		pix, err := dxt.DecodeDXT1(data, uint(w), uint(h))
		if err != nil {
			return nil, fmt.Errorf("%w: dxt1: %v", ErrTexture, err)
		}
		return pix, nil
	}
	return nil, fmt.Errorf("%w: unsupported format %d with size %d", ErrTexture, format, size)
}

// LoadImage reads a .tex or any registered image format from fsys.
func LoadImage(fsys fs.FS, name string) (*image.RGBA, error) {
	utils.Debug("Decoding texture: %s", name)
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(path.Ext(name), ".tex") {
		img, _, err := DecodeTex(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return img, nil
	}
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if img, ok := src.(*image.RGBA); ok {
		return img, nil
	}
	img := image.NewRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	return img, nil
}

// FindTexture resolves a material texture name to a file in fsys, trying
// .tex before plain images.
func FindTexture(fsys fs.FS, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	clean := strings.TrimSuffix(strings.TrimPrefix(name, "materials/"), ".tex")
	for _, dir := range []string{"materials", ".", "converted"} {
		for _, ext := range []string{".tex", ".png", ".jpg", ".jpeg"} {
			p := path.Join(dir, clean+ext)
			if _, err := fs.Stat(fsys, p); err == nil {
				return p, true
			}
		}
	}
	return "", false
}
