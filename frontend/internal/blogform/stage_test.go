package blogform

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngHeader is a PNG signature plus an IHDR chunk declaring w x h, with no
// pixel data. It is enough for image.DecodeConfig.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func newStager(t *testing.T) *Stager {
	t.Helper()
	s, err := NewStager(filepath.Join(t.TempDir(), "stage"), time.Hour, 1<<20)
	require.NoError(t, err)
	return s
}

func TestStager_Put(t *testing.T) {
	t.Run("stores original, preview and metadata", func(t *testing.T) {
		s := newStager(t)
		data := pngBytes(t, 800, 400)

		stage, err := s.Put("../../cover.png", "image/png", bytes.NewReader(data))
		require.NoError(t, err)
		assert.Len(t, stage.Key, keyLength)
		assert.Equal(t, "cover.png", stage.Filename)
		assert.Equal(t, 800, stage.Width)
		assert.Equal(t, 400, stage.Height)
		assert.NotEmpty(t, stage.BlurHash)

		f, got, err := s.Open(stage.Key)
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, stage, got)

		previewPath, err := s.PreviewPath(stage.Key)
		require.NoError(t, err)
		pf, err := os.Open(previewPath)
		require.NoError(t, err)
		defer pf.Close()
		cfg, err := png.DecodeConfig(pf)
		require.NoError(t, err)
		assert.Equal(t, PreviewSize, cfg.Width)
		assert.Equal(t, PreviewSize/2, cfg.Height)
	})

	t.Run("small image keeps its size", func(t *testing.T) {
		s := newStager(t)
		stage, err := s.Put("a.png", "image/png", bytes.NewReader(pngBytes(t, 40, 30)))
		require.NoError(t, err)
		previewPath, _ := s.PreviewPath(stage.Key)
		pf, err := os.Open(previewPath)
		require.NoError(t, err)
		defer pf.Close()
		cfg, err := png.DecodeConfig(pf)
		require.NoError(t, err)
		assert.Equal(t, 40, cfg.Width)
	})

	t.Run("non-image is rejected and cleaned up", func(t *testing.T) {
		s := newStager(t)
		_, err := s.Put("notes.txt", "text/plain", strings.NewReader("hello"))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.Equal(t, MsgNotAnImage, errors.UserMessage(err))

		entries, _ := os.ReadDir(s.dir)
		assert.Empty(t, entries)
	})

	t.Run("too many pixels is rejected before decoding", func(t *testing.T) {
		s := newStager(t)
		data := pngHeader(12000, 12000)
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err, "header must be readable")
		assert.Equal(t, 12000, cfg.Width)

		_, err = s.Put("huge.png", "image/png", bytes.NewReader(data))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.Equal(t, MsgImageTooWide, errors.UserMessage(err))

		entries, _ := os.ReadDir(s.dir)
		assert.Empty(t, entries)
	})

	t.Run("header within the limit still needs pixel data", func(t *testing.T) {
		s := newStager(t)
		_, err := s.Put("empty.png", "image/png", bytes.NewReader(pngHeader(100, 100)))
		require.Error(t, err)
		assert.Equal(t, MsgNotAnImage, errors.UserMessage(err))
	})

	t.Run("oversized upload is rejected", func(t *testing.T) {
		s, err := NewStager(t.TempDir(), time.Hour, 10)
		require.NoError(t, err)
		_, err = s.Put("big.png", "image/png", bytes.NewReader(pngBytes(t, 10, 10)))
		assert.Equal(t, MsgImageTooBig, errors.UserMessage(err))
	})
}

func TestStager_Lookup(t *testing.T) {
	s := newStager(t)

	for _, key := range []string{"", "../etc", "short", strings.Repeat("a", keyLength)} {
		_, err := s.Get(key)
		assert.ErrorIs(t, err, ErrStageNotFound, key)
		_, err = s.PreviewPath(key)
		assert.ErrorIs(t, err, ErrStageNotFound, key)
	}
	assert.NoError(t, s.Remove("../etc"))
}

func TestStager_Sweep(t *testing.T) {
	s := newStager(t)
	old, err := s.Put("old.png", "image/png", bytes.NewReader(pngBytes(t, 8, 8)))
	require.NoError(t, err)

	n, err := s.Sweep()
	require.NoError(t, err)
	assert.Zero(t, n)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	fresh, err := s.Put("fresh.png", "image/png", bytes.NewReader(pngBytes(t, 8, 8)))
	require.NoError(t, err)
	require.NoError(t, os.Chtimes(filepath.Join(s.dir, fresh.Key), s.now(), s.now()))

	n, err = s.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Get(old.Key)
	assert.ErrorIs(t, err, ErrStageNotFound)
	_, err = s.Get(fresh.Key)
	assert.NoError(t, err)
}

func TestThumbnail(t *testing.T) {
	tall := image.NewRGBA(image.Rect(0, 0, 100, 1000))
	b := thumbnail(tall, 320).Bounds()
	assert.Equal(t, 32, b.Dx())
	assert.Equal(t, 320, b.Dy())

	sliver := image.NewRGBA(image.Rect(0, 0, 5000, 1))
	b = thumbnail(sliver, 64).Bounds()
	assert.Equal(t, 64, b.Dx())
	assert.Equal(t, 1, b.Dy())
}
