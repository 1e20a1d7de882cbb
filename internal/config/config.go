package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything folio reads from config.toml.
type Config struct {
	Viewer Viewer
	Notes  Notes
	Log    Log
}

// Viewer tunes rendering and layout.
type Viewer struct {
	DefaultScale     string
	DevicePixelRatio float64
	MaxCanvasPixels  int
	CacheSize        int
	IdleTimeout      time.Duration
	RenderSlice      time.Duration
	ThumbnailWidth   int
	UseOnlyCSSZoom   bool
	PageGap          float64
}

// Notes locates the notes server.
type Notes struct {
	APIBind      string
	DocumentID   string
	PollInterval time.Duration
}

// Log configures the viewer's log file.
type Log struct {
	Level string
	File  string
}

const (
	defaultConfigPath = "~/.config/folio/config.toml"
	defaultLogFile    = "~/.local/share/folio/folio.log"
	defaultAPIBind    = "127.0.0.1:7488"

	defaultScale            = "auto"
	defaultDevicePixelRatio = 1.0
	defaultMaxCanvasPixels  = 16777216
	defaultCacheSize        = 10
	defaultIdleTimeout      = 30 * time.Second
	defaultRenderSlice      = 15 * time.Millisecond
	defaultThumbnailWidth   = 20
	defaultPageGap          = 2.0
	defaultPollInterval     = 5 * time.Second
	defaultLogLevel         = "info"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Viewer: Viewer{
			DefaultScale:     defaultScale,
			DevicePixelRatio: defaultDevicePixelRatio,
			MaxCanvasPixels:  defaultMaxCanvasPixels,
			CacheSize:        defaultCacheSize,
			IdleTimeout:      defaultIdleTimeout,
			RenderSlice:      defaultRenderSlice,
			ThumbnailWidth:   defaultThumbnailWidth,
			PageGap:          defaultPageGap,
		},
		Notes: Notes{
			APIBind:      defaultAPIBind,
			PollInterval: defaultPollInterval,
		},
		Log: Log{
			Level: defaultLogLevel,
			File:  mustExpand(defaultLogFile),
		},
	}
}

type rawConfig struct {
	Viewer struct {
		DefaultScale     string  `toml:"default_scale"`
		DevicePixelRatio float64 `toml:"device_pixel_ratio"`
		MaxCanvasPixels  int     `toml:"max_canvas_pixels"`
		CacheSize        int     `toml:"cache_size"`
		IdleTimeout      string  `toml:"idle_timeout"`
		RenderSlice      string  `toml:"render_slice"`
		ThumbnailWidth   int     `toml:"thumbnail_width"`
		UseOnlyCSSZoom   bool    `toml:"use_only_css_zoom"`
		PageGap          float64 `toml:"page_gap"`
	} `toml:"viewer"`
	Notes struct {
		APIBind      string `toml:"api_bind"`
		DocumentID   string `toml:"document_id"`
		PollInterval string `toml:"poll_interval"`
	} `toml:"notes"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
}

// Load locates and parses the folio config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	v := raw.Viewer
	if s := strings.TrimSpace(v.DefaultScale); s != "" {
		cfg.Viewer.DefaultScale = strings.ToLower(s)
	}
	if v.DevicePixelRatio > 0 {
		cfg.Viewer.DevicePixelRatio = v.DevicePixelRatio
	}
	if v.MaxCanvasPixels != 0 {
		// Negative disables the cap.
		cfg.Viewer.MaxCanvasPixels = v.MaxCanvasPixels
	}
	if v.CacheSize > 0 {
		cfg.Viewer.CacheSize = v.CacheSize
	}
	if cfg.Viewer.IdleTimeout, err = parseDuration("viewer.idle_timeout", v.IdleTimeout, defaultIdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Viewer.RenderSlice, err = parseDuration("viewer.render_slice", v.RenderSlice, defaultRenderSlice); err != nil {
		return Config{}, err
	}
	if v.ThumbnailWidth > 0 {
		cfg.Viewer.ThumbnailWidth = v.ThumbnailWidth
	}
	cfg.Viewer.UseOnlyCSSZoom = v.UseOnlyCSSZoom
	if v.PageGap > 0 {
		cfg.Viewer.PageGap = v.PageGap
	}

	n := raw.Notes
	if s := strings.TrimSpace(n.APIBind); s != "" {
		cfg.Notes.APIBind = s
	}
	cfg.Notes.DocumentID = strings.TrimSpace(n.DocumentID)
	if cfg.Notes.PollInterval, err = parseDuration("notes.poll_interval", n.PollInterval, defaultPollInterval); err != nil {
		return Config{}, err
	}

	if s := strings.TrimSpace(raw.Log.Level); s != "" {
		cfg.Log.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(raw.Log.File); s != "" {
		cfg.Log.File = mustExpand(s)
	}

	return cfg, nil
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", field, err)
	}
	if d <= 0 {
		return fallback, nil
	}
	return d, nil
}

// DocumentID returns the notes document id for the document at path. The
// configured id wins; otherwise the file name without extension is used.
func (c Config) DocumentID(path string) string {
	if c.Notes.DocumentID != "" {
		return c.Notes.DocumentID
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

// ExpandPath expands a leading tilde and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}
