package convert

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func buildPackage(files map[string][]byte, order []string) []byte {
	var header, body bytes.Buffer
	putString(&header, "PKGV0019")
	binary.Write(&header, binary.LittleEndian, uint32(len(order)))
	for _, name := range order {
		putString(&header, name)
		binary.Write(&header, binary.LittleEndian, uint32(body.Len()))
		binary.Write(&header, binary.LittleEndian, uint32(len(files[name])))
		body.Write(files[name])
	}
	return append(header.Bytes(), body.Bytes()...)
}

type texOptions struct {
	format     uint32
	width      uint32
	height     uint32
	mipW, mipH uint32
	data       []byte
	compress   bool

	// Header lengths to write instead of the real ones, when set.
	dataSize, rawSize uint32
}

func buildTex(t *testing.T, o texOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	u32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }
	buf.WriteString("TEXV0005\x00")
	buf.WriteString("TEXI0001\x00")
	u32(o.format)
	u32(0)
	u32(o.mipW)
	u32(o.mipH)
	u32(o.width)
	u32(o.height)
	u32(0)
	buf.WriteString("TEXB0003\x00")
	u32(1)
	u32(0)
	u32(1)
	u32(o.mipW)
	u32(o.mipH)

	data := o.data
	if o.compress {
		out := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, out, nil)
		require.NoError(t, err)
		require.NotZero(t, n)
		raw := uint32(len(data))
		if o.rawSize != 0 {
			raw = o.rawSize
		}
		u32(1)
		u32(raw)
		data = out[:n]
	} else {
		u32(0)
		u32(0)
	}
	size := uint32(len(data))
	if o.dataSize != 0 {
		size = o.dataSize
	}
	u32(size)
	buf.Write(data)
	return buf.Bytes()
}

func TestDecodeTexLZ4RGBA(t *testing.T) {
	pix := bytes.Repeat([]byte{10, 20, 30, 255}, 8*8)
	tex := buildTex(t, texOptions{format: FormatRGBA8888, width: 6, height: 5, mipW: 8, mipH: 8, data: pix, compress: true})

	img, h, err := DecodeTex(bytes.NewReader(tex))
	require.NoError(t, err)
	assert.Equal(t, "TEXB0003", h.Container)
	assert.Equal(t, 1, h.Images)
	assert.Equal(t, image.Rect(0, 0, 6, 5), img.Bounds())
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, img.RGBAAt(5, 4))
}

func TestDecodeTexR8(t *testing.T) {
	tex := buildTex(t, texOptions{format: FormatR8, width: 2, height: 2, mipW: 2, mipH: 2, data: []byte{0, 64, 128, 255}})
	img, _, err := DecodeTex(bytes.NewReader(tex))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{128, 128, 128, 255}, img.RGBAAt(0, 1))
}

func TestDecodeTexErrors(t *testing.T) {
	_, _, err := DecodeTex(bytes.NewReader([]byte("TEXV0004\x00TEXI0001\x00")))
	assert.ErrorIs(t, err, ErrTexture)

	tex := buildTex(t, texOptions{format: FormatRG88, width: 2, height: 2, mipW: 2, mipH: 2, data: []byte{1, 2, 3}})
	_, _, err = DecodeTex(bytes.NewReader(tex))
	assert.ErrorIs(t, err, ErrTexture)

	tex = buildTex(t, texOptions{format: FormatR8, width: 2, height: 2, mipW: 2, mipH: 2, data: []byte{1, 2, 3, 4}})
	_, _, err = DecodeTex(bytes.NewReader(tex[:len(tex)-2]))
	assert.ErrorIs(t, err, ErrTexture)
}

func TestDecodeTexRejectsImplausibleSizes(t *testing.T) {
	r8 := func(o texOptions) error {
		o.format, o.width, o.height = FormatR8, o.mipW, o.mipH
		_, _, err := DecodeTex(bytes.NewReader(buildTex(t, o)))
		return err
	}

	assert.ErrorIs(t, r8(texOptions{mipW: 100000, mipH: 1, data: []byte{1}}), ErrTexture)
	assert.ErrorIs(t, r8(texOptions{mipW: 0, mipH: 4, data: []byte{1}}), ErrTexture)
	assert.ErrorIs(t, r8(texOptions{mipW: 2, mipH: 2, data: []byte{1, 2, 3, 4}, dataSize: 0xfffffff0}), ErrTexture)
	flat := bytes.Repeat([]byte{9}, 8*8)
	assert.ErrorIs(t, r8(texOptions{mipW: 8, mipH: 8, data: flat, compress: true, rawSize: 1 << 30}), ErrTexture)
	// Within the size bound but longer than the stream.
	assert.ErrorIs(t, r8(texOptions{mipW: 2, mipH: 2, data: []byte{1, 2, 3, 4}, dataSize: 16}), ErrTexture)

	assert.NoError(t, r8(texOptions{mipW: 8, mipH: 8, data: flat, compress: true}))
}

func testPackage(t *testing.T) *Package {
	t.Helper()
	var glow bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(1, 1, color.RGBA{255, 0, 0, 255})
	require.NoError(t, png.Encode(&glow, img))

	files := map[string][]byte{
		"particles/spark.json": []byte(`{"maxcount": 8}`),
		"materials/spark.tex":  buildTex(t, texOptions{format: FormatR8, width: 2, height: 2, mipW: 2, mipH: 2, data: []byte{1, 2, 3, 4}}),
		"materials/glow.png":   glow.Bytes(),
		"scene.json":           []byte(`{}`),
	}
	order := []string{"scene.json", "particles/spark.json", "materials/spark.tex", "materials/glow.png"}
	pkg, err := ReadPackage(buildPackage(files, order))
	require.NoError(t, err)
	return pkg
}

func TestPackageFS(t *testing.T) {
	pkg := testPackage(t)
	assert.Equal(t, "PKGV0019", pkg.Version)
	require.Len(t, pkg.Entries, 4)

	data, err := fs.ReadFile(pkg, "particles/spark.json")
	require.NoError(t, err)
	assert.Equal(t, `{"maxcount": 8}`, string(data))

	_, err = pkg.Open("missing.json")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	entries, err := fs.ReadDir(pkg, "materials")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "glow.png", entries[0].Name())

	require.NoError(t, fstest.TestFS(pkg, "scene.json", "particles/spark.json", "materials/spark.tex", "materials/glow.png"))
}

func TestReadPackageTruncated(t *testing.T) {
	data := buildPackage(map[string][]byte{"a.json": []byte("{}")}, []string{"a.json"})
	_, err := ReadPackage(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrPackage)
	_, err = ReadPackage(data[:3])
	assert.ErrorIs(t, err, ErrPackage)
}

func TestLoadImageAndFindTexture(t *testing.T) {
	pkg := testPackage(t)

	p, ok := FindTexture(pkg, "materials/spark")
	require.True(t, ok)
	assert.Equal(t, "materials/spark.tex", p)
	img, err := LoadImage(pkg, p)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), img.RGBAAt(1, 1).R)

	p, ok = FindTexture(pkg, "glow")
	require.True(t, ok)
	img, err = LoadImage(pkg, p)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(1, 1))

	_, ok = FindTexture(pkg, "nothing")
	assert.False(t, ok)
}

func TestExtractAndConvert(t *testing.T) {
	pkg := testPackage(t)
	dir := t.TempDir()
	require.NoError(t, pkg.Extract(dir))
	data, err := os.ReadFile(filepath.Join(dir, "particles", "spark.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"maxcount": 8}`, string(data))

	out := t.TempDir()
	n, err := ConvertTextures(pkg, out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = os.Stat(filepath.Join(out, "materials", "spark.png"))
	assert.NoError(t, err)
}
