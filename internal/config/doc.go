// Package config loads folio's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/folio/config.toml
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or empty, use defaults
//
// # TOML Format
//
//	[viewer]
//	default_scale = "auto"        # number or auto, page-width, page-height, page-fit, page-actual
//	device_pixel_ratio = 1.0
//	max_canvas_pixels = 16777216  # negative disables the cap
//	cache_size = 10
//	idle_timeout = "30s"
//	render_slice = "15ms"
//	thumbnail_width = 20
//	use_only_css_zoom = false
//	page_gap = 2.0
//
//	[notes]
//	api_bind = "127.0.0.1:7488"
//	document_id = ""              # defaults to the document file name
//	poll_interval = "5s"
//
//	[log]
//	level = "info"
//	file = "~/.local/share/folio/folio.log"
//
// Durations use time.ParseDuration syntax. Tilde expansion is performed for
// the config path and log.file.
//
// Missing config files are not an error, so folio works without one.
package config
