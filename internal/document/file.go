package document

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	// Image pages may reference any of these formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/five82/folio/internal/render"
)

const (
	defaultPageWidth  = 612
	defaultPageHeight = 792
	defaultBackground = "#ffffff"
)

// Op is one display-list entry.
type Op struct {
	Kind      string  `toml:"kind"`
	X         float64 `toml:"x"`
	Y         float64 `toml:"y"`
	W         float64 `toml:"w"`
	H         float64 `toml:"h"`
	Color     string  `toml:"color"`
	Fill      bool    `toml:"fill"`
	LineWidth float64 `toml:"line_width"`
	Text      string  `toml:"text"`
	Size      float64 `toml:"size"`
	Src       string  `toml:"src"`
}

// PageSpec is the on-disk description of one page.
type PageSpec struct {
	Width      float64 `toml:"width"`
	Height     float64 `toml:"height"`
	Rotate     int     `toml:"rotate"`
	Background string  `toml:"background"`
	Ops        []Op    `toml:"ops"`
}

type fileSpec struct {
	Title string     `toml:"title"`
	Pages []PageSpec `toml:"pages"`
}

// File is a Document loaded from a TOML display list.
type File struct {
	title   string
	baseDir string
	specs   []PageSpec

	mu     sync.Mutex
	loaded map[int]*filePage

	log *logrus.Entry
}

var _ Document = (*File)(nil)

// Load reads a TOML document. Image sources resolve relative to its directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	f, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	if f.title == "" {
		f.title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// Parse decodes a TOML document.
func Parse(data []byte, baseDir string) (*File, error) {
	var spec fileSpec
	if err := toml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return New(spec.Title, spec.Pages, baseDir)
}

// New builds a document from page specs, validating every op.
func New(title string, pages []PageSpec, baseDir string) (*File, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	specs := make([]PageSpec, len(pages))
	for i, p := range pages {
		p, err := normalizePage(p)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		specs[i] = p
	}
	return &File{
		title:   strings.TrimSpace(title),
		baseDir: baseDir,
		specs:   specs,
		loaded:  make(map[int]*filePage),
		log:     logrus.WithField("component", "document"),
	}, nil
}

func normalizePage(p PageSpec) (PageSpec, error) {
	if p.Width == 0 {
		p.Width = defaultPageWidth
	}
	if p.Height == 0 {
		p.Height = defaultPageHeight
	}
	if p.Width < 0 || p.Height < 0 {
		return p, fmt.Errorf("negative page size %vx%v", p.Width, p.Height)
	}
	if p.Rotate%90 != 0 {
		return p, fmt.Errorf("rotate %d is not a multiple of 90", p.Rotate)
	}
	if strings.TrimSpace(p.Background) == "" {
		p.Background = defaultBackground
	}
	if !validHex(p.Background) {
		return p, fmt.Errorf("invalid background %q", p.Background)
	}
	ops := make([]Op, len(p.Ops))
	for i, op := range p.Ops {
		op.Kind = strings.ToLower(strings.TrimSpace(op.Kind))
		if _, ok := painters[op.Kind]; !ok {
			return p, fmt.Errorf("op %d: unknown kind %q", i, op.Kind)
		}
		if op.Color == "" {
			op.Color = "#000000"
		}
		if !validHex(op.Color) {
			return p, fmt.Errorf("op %d: invalid color %q", i, op.Color)
		}
		if op.Kind == "image" && strings.TrimSpace(op.Src) == "" {
			return p, fmt.Errorf("op %d: image without src", i)
		}
		ops[i] = op
	}
	p.Ops = ops
	return p, nil
}

func validHex(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// Title returns the document title.
func (f *File) Title() string { return f.title }

// NumPages returns the page count.
func (f *File) NumPages() int { return len(f.specs) }

// PageSize returns the unrotated size of page n without loading it.
func (f *File) PageSize(n int) (w, h float64, err error) {
	if n < 1 || n > len(f.specs) {
		return 0, 0, fmt.Errorf("page %d: %w", n, ErrPageOutOfRange)
	}
	return f.specs[n-1].Width, f.specs[n-1].Height, nil
}

// Page loads page n, decoding its images.
func (f *File) Page(ctx context.Context, n int) (Page, error) {
	if n < 1 || n > len(f.specs) {
		return nil, fmt.Errorf("page %d: %w", n, ErrPageOutOfRange)
	}
	f.mu.Lock()
	if p, ok := f.loaded[n]; ok {
		f.mu.Unlock()
		return p, nil
	}
	f.mu.Unlock()

	p := &filePage{number: n, spec: f.specs[n-1], baseDir: f.baseDir}
	if err := p.loadImages(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.loaded[n]; ok {
		return existing, nil
	}
	f.loaded[n] = p
	return p, nil
}

// Cleanup drops decoded images of pages that are not rendering.
func (f *File) Cleanup() {
	f.mu.Lock()
	pages := make([]*filePage, 0, len(f.loaded))
	for _, p := range f.loaded {
		pages = append(pages, p)
	}
	f.mu.Unlock()

	released := 0
	for _, p := range pages {
		if p.releaseImages() {
			released++
		}
	}
	if released > 0 {
		f.log.WithField("pages", released).Debug("released decoded images")
	}
}

type filePage struct {
	number  int
	spec    PageSpec
	baseDir string

	mu     sync.Mutex
	images map[string]image.Image
	active int
}

var _ Page = (*filePage)(nil)

func (p *filePage) Number() int { return p.number }

func (p *filePage) ViewBox() [4]float64 {
	return [4]float64{0, 0, p.spec.Width, p.spec.Height}
}

func (p *filePage) Rotation() int { return p.spec.Rotate }

func (p *filePage) loadImages(ctx context.Context) error {
	images := make(map[string]image.Image)
	for _, op := range p.spec.Ops {
		if op.Kind != "image" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := images[op.Src]; ok {
			continue
		}
		img, err := decodeImage(p.resolve(op.Src))
		if err != nil {
			// A broken image fails the render, not the load.
			continue
		}
		images[op.Src] = img
	}
	p.mu.Lock()
	p.images = images
	p.mu.Unlock()
	return nil
}

func (p *filePage) resolve(src string) string {
	if filepath.IsAbs(src) || p.baseDir == "" {
		return src
	}
	return filepath.Join(p.baseDir, src)
}

func (p *filePage) image(src string) (image.Image, error) {
	p.mu.Lock()
	img, ok := p.images[src]
	p.mu.Unlock()
	if ok {
		return img, nil
	}
	img, err := decodeImage(p.resolve(src))
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	if p.images == nil {
		p.images = make(map[string]image.Image)
	}
	p.images[src] = img
	p.mu.Unlock()
	return img, nil
}

func (p *filePage) releaseImages() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active > 0 || len(p.images) == 0 {
		return false
	}
	p.images = nil
	return true
}

func (p *filePage) Render(exec render.Executor, params RenderParams) *RenderTask {
	p.mu.Lock()
	p.active++
	p.mu.Unlock()
	release := func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}
	return newRenderTask(exec, params.Canvas, p.displayList(params), params.Slice, params.OpsPerChunk, release)
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = file.Close() }()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
