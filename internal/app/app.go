package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/document"
	"github.com/five82/folio/internal/logging"
	"github.com/five82/folio/internal/notes"
	"github.com/five82/folio/internal/prefs"
	"github.com/five82/folio/internal/render"
	"github.com/five82/folio/internal/state"
	"github.com/five82/folio/internal/ui"
)

// Options configure the folio application.
type Options struct {
	DocumentPath string
	ConfigPath   string
	PrefsPath    string // empty uses default ~/.config/folio/prefs.toml
	// Scale overrides the saved and configured scale when set.
	Scale string
	// ExportDir switches to a headless export of every page.
	ExportDir string
}

// Run boots folio until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.DocumentPath == "" {
		return errors.New("no document given")
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if opts.ExportDir != "" {
		return runExport(ctx, cfg, opts)
	}

	closeLog, err := logging.Setup(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()
	userPrefs := loadPrefs(opts.PrefsPath)

	doc, err := document.Load(opts.DocumentPath)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}

	client, err := notes.NewClient(cfg.Notes.APIBind)
	if err != nil {
		return fmt.Errorf("init notes client: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := render.NewLoop()
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	store := &state.Store{}
	scale := opts.Scale
	if scale == "" {
		scale = userPrefs.Scale
	}
	documentID := cfg.DocumentID(opts.DocumentPath)
	sess := newSession(sessionOptions{
		Context:    ctx,
		Exec:       loop,
		Call:       func(fn func()) error { return loop.Call(ctx, fn) },
		Store:      store,
		Fetcher:    client,
		Viewer:     cfg.Viewer,
		DocumentID: documentID,
		Scale:      scale,
		Rotation:   userPrefs.Rotation,
		Sidebar:    userPrefs.Sidebar,
	})
	loop.Post(func() { sess.open(doc) })

	poller := &notesPoller{
		store:      store,
		fetcher:    client,
		documentID: documentID,
		interval:   cfg.Notes.PollInterval,
		apply:      func(d notes.Document) { loop.Post(func() { sess.applyNotes(d) }) },
	}
	poller.Start(ctx)

	logrus.WithFields(logrus.Fields{
		"document": filepath.Base(opts.DocumentPath),
		"pages":    doc.NumPages(),
		"notes":    cfg.Notes.APIBind,
	}).Info("folio started")

	err = ui.Run(ui.Options{
		Context:    ctx,
		Store:      store,
		Controller: sess,
		Config:     &cfg,
		Prefs:      userPrefs,
		PrefsPath:  opts.PrefsPath,
	})
	cancel()
	<-loopDone
	doc.Cleanup()
	return err
}

func runExport(ctx context.Context, cfg config.Config, opts Options) error {
	closeLog, err := logging.Setup(logging.Options{Level: cfg.Log.Level})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()
	userPrefs := loadPrefs(opts.PrefsPath)

	scale := 1.0
	if opts.Scale != "" {
		scale, err = strconv.ParseFloat(opts.Scale, 64)
		if err != nil || scale <= 0 {
			return fmt.Errorf("export scale %q: must be a positive number", opts.Scale)
		}
	}

	var noteDoc *notes.Document
	if client, err := notes.NewClient(cfg.Notes.APIBind); err == nil {
		d, err := client.FetchNotes(ctx, cfg.DocumentID(opts.DocumentPath))
		if err != nil {
			logrus.WithError(err).Warn("exporting without notes")
		} else {
			noteDoc = &d
		}
	}

	paths, err := Export(ctx, ExportOptions{
		DocumentPath: opts.DocumentPath,
		OutDir:       opts.ExportDir,
		Scale:        scale,
		Rotation:     userPrefs.Rotation,
		Viewer:       cfg.Viewer,
		Notes:        noteDoc,
	})
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

// loadPrefs reads saved preferences. A broken file is reported and replaced
// by the defaults; it is rewritten on the next save.
func loadPrefs(path string) prefs.Prefs {
	p, err := prefs.Load(path)
	if err != nil {
		logrus.WithError(err).Warn("ignoring saved preferences")
	}
	return p
}
