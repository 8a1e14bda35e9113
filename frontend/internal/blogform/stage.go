package blogform

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bbrks/go-blurhash"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/itchan-dev/blogfront/shared/logger"
	"github.com/itchan-dev/blogfront/shared/middleware/metrics"
)

const (
	PreviewSize  = 320
	blurHashSize = 64
	keyLength    = 21

	originalFile = "original"
	previewFile  = "preview.png"
	metaFile     = "meta.json"

	MsgNotAnImage   = "Please choose an image file (JPEG, PNG, GIF or WebP)."
	MsgImageTooBig  = "Image is too large."
	MsgImageTooWide = "Image dimensions are too large."
	keyAlphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	defaultMaxBytes = 10 << 20
)

// MaxImagePixels bounds width*height so decoding stays within memory
// whatever the file size.
const MaxImagePixels = 40_000_000

var ErrStageNotFound = stderrors.New("staged image not found")

// Stage describes a pending upload kept on disk until the form is submitted
// or cancelled.
type Stage struct {
	Key         string `json:"key"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	BlurHash    string `json:"blurHash"`
}

// Stager owns the staging directory. Every upload lives in its own
// subdirectory named by a random key.
type Stager struct {
	dir      string
	ttl      time.Duration
	maxBytes int64
	now      func() time.Time
}

func NewStager(dir string, ttl time.Duration, maxBytes int64) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create stage dir: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Stager{dir: dir, ttl: ttl, maxBytes: maxBytes, now: time.Now}, nil
}

// Put copies r into a new stage. The content must decode as an image; a PNG
// preview no larger than PreviewSize and a BlurHash are derived from it.
func (s *Stager) Put(filename, contentType string, r io.Reader) (Stage, error) {
	key, err := gonanoid.Generate(keyAlphabet, keyLength)
	if err != nil {
		return Stage{}, fmt.Errorf("generate stage key: %w", err)
	}
	dir := filepath.Join(s.dir, key)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return Stage{}, fmt.Errorf("create stage: %w", err)
	}
	stage, err := s.fill(dir, key, filename, contentType, r)
	if err != nil {
		os.RemoveAll(dir)
		return Stage{}, err
	}
	metrics.StagedImages.Inc()
	logger.Log.Debug("staged image", "key", key, "filename", filename, "width", stage.Width, "height", stage.Height)
	return stage, nil
}

func (s *Stager) fill(dir, key, filename, contentType string, r io.Reader) (Stage, error) {
	original := filepath.Join(dir, originalFile)
	f, err := os.OpenFile(original, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return Stage{}, fmt.Errorf("create staged file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Stage{}, fmt.Errorf("write staged file: %w", err)
	}
	if n > s.maxBytes {
		return Stage{}, errors.Validation("image", MsgImageTooBig)
	}

	img, err := decodeFile(original)
	if err != nil {
		logger.Log.Debug("rejecting staged file", "filename", filename, "error", err)
		if stderrors.Is(err, errTooManyPixels) {
			return Stage{}, errors.Validation("image", MsgImageTooWide)
		}
		return Stage{}, errors.Validation("image", MsgNotAnImage)
	}

	preview := thumbnail(img, PreviewSize)
	if err := writePNG(filepath.Join(dir, previewFile), preview); err != nil {
		return Stage{}, err
	}
	hash, err := blurhash.Encode(4, 3, thumbnail(preview, blurHashSize))
	if err != nil {
		// The placeholder is cosmetic.
		logger.Log.Warn("encode blurhash", "key", key, "error", err)
		hash = ""
	}

	bounds := img.Bounds()
	stage := Stage{
		Key:         key,
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		BlurHash:    hash,
	}
	meta, err := json.Marshal(stage)
	if err != nil {
		return Stage{}, fmt.Errorf("encode stage: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metaFile), meta, 0o600); err != nil {
		return Stage{}, fmt.Errorf("write stage: %w", err)
	}
	return stage, nil
}

var errTooManyPixels = stderrors.New("image dimensions exceed limit")

// decodeFile reads the header first and refuses to decode images whose pixel
// count exceeds MaxImagePixels.
func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, errTooManyPixels)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(f)
	return img, err
}

func writePNG(path string, img image.Image) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode preview: %w", err)
	}
	return f.Close()
}

// thumbnail scales img to fit within limit x limit, keeping the aspect
// ratio. Images already small enough are returned as is.
func thumbnail(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}
	var dw, dh int
	if w >= h {
		dw, dh = limit, h*limit/w
	} else {
		dw, dh = w*limit/h, limit
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func validKey(key string) bool {
	if len(key) != keyLength {
		return false
	}
	for _, r := range key {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

func (s *Stager) stageDir(key string) (string, error) {
	if !validKey(key) {
		return "", ErrStageNotFound
	}
	dir := filepath.Join(s.dir, key)
	if _, err := os.Stat(dir); err != nil {
		return "", ErrStageNotFound
	}
	return dir, nil
}

func (s *Stager) Get(key string) (Stage, error) {
	dir, err := s.stageDir(key)
	if err != nil {
		return Stage{}, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return Stage{}, ErrStageNotFound
	}
	var stage Stage
	if err := json.Unmarshal(data, &stage); err != nil {
		return Stage{}, fmt.Errorf("decode stage: %w", err)
	}
	return stage, nil
}

// Open returns the original upload. The caller closes it.
func (s *Stager) Open(key string) (*os.File, Stage, error) {
	stage, err := s.Get(key)
	if err != nil {
		return nil, Stage{}, err
	}
	f, err := os.Open(filepath.Join(s.dir, key, originalFile))
	if err != nil {
		return nil, Stage{}, ErrStageNotFound
	}
	return f, stage, nil
}

func (s *Stager) PreviewPath(key string) (string, error) {
	dir, err := s.stageDir(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, previewFile), nil
}

// Remove discards a stage. Unknown keys are ignored.
func (s *Stager) Remove(key string) error {
	dir, err := s.stageDir(key)
	if err != nil {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove stage: %w", err)
	}
	metrics.StagedImages.Dec()
	return nil
}

// Sweep removes stages older than the TTL and returns how many went.
func (s *Stager) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read stage dir: %w", err)
	}
	cutoff := s.now().Add(-s.ttl)
	removed, kept := 0, 0
	for _, e := range entries {
		if !e.IsDir() || !validKey(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			kept++
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			logger.Log.Warn("remove expired stage", "key", e.Name(), "error", err)
			kept++
			continue
		}
		removed++
	}
	metrics.StagedImages.Set(float64(kept))
	return removed, nil
}

// Run sweeps every interval until ctx is done.
func (s *Stager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep()
			if err != nil {
				logger.Log.Error("sweeping staged images", "error", err)
				continue
			}
			if n > 0 {
				logger.Log.Info("removed expired staged images", "count", n)
			}
		}
	}
}
