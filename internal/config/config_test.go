package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notes.APIBind != defaultAPIBind {
		t.Fatalf("APIBind = %q, want %q", cfg.Notes.APIBind, defaultAPIBind)
	}
	if cfg.Viewer.DefaultScale != "auto" || cfg.Viewer.CacheSize != 10 || cfg.Viewer.IdleTimeout != 30*time.Second {
		t.Fatalf("viewer defaults = %+v", cfg.Viewer)
	}
	if cfg.Viewer.MaxCanvasPixels != 16777216 || cfg.Viewer.DevicePixelRatio != 1 {
		t.Fatalf("canvas defaults = %+v", cfg.Viewer)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.Log.File != wantLog || cfg.Log.Level != "info" {
		t.Fatalf("Log = %+v, want file %q level info", cfg.Log, wantLog)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
[viewer]
default_scale = " Page-Width "
device_pixel_ratio = 2.0
max_canvas_pixels = -1
cache_size = 20
idle_timeout = "1m"
render_slice = "5ms"
thumbnail_width = 30
use_only_css_zoom = true
page_gap = 4.0

[notes]
api_bind = "  10.0.0.5:9999  "
document_id = " report "
poll_interval = "2s"

[log]
level = "DEBUG"
file = "  ~/logs/folio.log  "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := Viewer{
		DefaultScale:     "page-width",
		DevicePixelRatio: 2,
		MaxCanvasPixels:  -1,
		CacheSize:        20,
		IdleTimeout:      time.Minute,
		RenderSlice:      5 * time.Millisecond,
		ThumbnailWidth:   30,
		UseOnlyCSSZoom:   true,
		PageGap:          4,
	}
	if cfg.Viewer != want {
		t.Fatalf("Viewer = %+v, want %+v", cfg.Viewer, want)
	}
	if cfg.Notes.APIBind != "10.0.0.5:9999" || cfg.Notes.DocumentID != "report" || cfg.Notes.PollInterval != 2*time.Second {
		t.Fatalf("Notes = %+v", cfg.Notes)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Log.File != filepath.Join(home, "logs/folio.log") {
		t.Fatalf("Log.File = %q, want it under HOME %q", cfg.Log.File, home)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
[viewer]
default_scale = "   "
cache_size = 0
idle_timeout = ""
[notes]
api_bind = "   "
[log]
file = ""
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Load = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"toml", `[viewer`, "parse config"},
		{"duration", "[viewer]\nidle_timeout = \"soon\"", "viewer.idle_timeout"},
		{"poll", "[notes]\npoll_interval = \"5\"", "notes.poll_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.body), 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestConfig_DocumentID(t *testing.T) {
	var cfg Config
	if got := cfg.DocumentID("/docs/annual-report.toml"); got != "annual-report" {
		t.Fatalf("DocumentID = %q, want annual-report", got)
	}
	cfg.Notes.DocumentID = "fixed"
	if got := cfg.DocumentID("/docs/annual-report.toml"); got != "fixed" {
		t.Fatalf("DocumentID = %q, want fixed", got)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
