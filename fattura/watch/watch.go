// Package watch runs the ingestion pipeline over an inbox directory:
// every XML transmission file dropped there is normalized, stored and
// rendered as a PDF, then removed.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-fattura/fattura/extract"
	"github.com/alapierre/go-fattura/fattura/layout"
	"github.com/alapierre/go-fattura/fattura/store"
	"github.com/alapierre/go-fattura/fattura/xmltree"
)

var logger = logrus.WithField("component", "fattura.watch")

type Config struct {
	// InboxDir is the watched directory.
	InboxDir string
	// OutputDir receives the rendered documents.
	OutputDir string
	// SettleDelay is how long a file must stay quiet before it is
	// picked up, so partially written files are not processed.
	SettleDelay time.Duration
}

type Watcher struct {
	cfg      Config
	store    *store.Store
	renderer *layout.Renderer

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func New(cfg Config, st *store.Store, renderer *layout.Renderer) *Watcher {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 2 * time.Second
	}
	return &Watcher{
		cfg:      cfg,
		store:    st,
		renderer: renderer,
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches the inbox until the context is cancelled. Files already
// present at startup are processed as well. Per-file failures are
// logged and skipped, they never stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output dir")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.cfg.InboxDir); err != nil {
		return errors.Wrap(err, "watching inbox")
	}

	logger.WithField("dir", w.cfg.InboxDir).Info("watching for XML invoices")

	existing, err := filepath.Glob(filepath.Join(w.cfg.InboxDir, "*.xml"))
	if err != nil {
		return errors.Wrap(err, "scanning inbox")
	}
	for _, path := range existing {
		w.schedule(path)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if strings.ToLower(filepath.Ext(event.Name)) != ".xml" {
				continue
			}
			w.schedule(event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Error("watcher error")
		}
	}
}

// schedule (re)arms the settle timer for one file, so a burst of write
// events results in a single processing run once the file is quiet.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.cfg.SettleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(w.cfg.SettleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if _, err := w.Process(path); err != nil {
			logger.WithError(err).WithField("file", path).Error("can't process invoice file")
		}
	})
}

// Process runs the whole pipeline for one XML file: parse, extract,
// save, render, then delete the source file. Returns the assigned
// invoice id.
func (w *Watcher) Process(path string) (int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrap(err, "read XML file")
	}

	tree, err := xmltree.Parse(raw)
	if err != nil {
		return 0, errors.Wrap(err, "parse XML file")
	}

	inv, err := extract.Extract(tree)
	if err != nil {
		return 0, errors.Wrap(err, "extract invoice")
	}

	id, err := w.store.Save(inv)
	if err != nil {
		return 0, errors.Wrap(err, "save invoice")
	}
	inv.ID = id

	pdf, err := w.renderer.Render(inv)
	if err != nil {
		return 0, errors.Wrap(err, "render document")
	}

	out := filepath.Join(w.cfg.OutputDir, fmt.Sprintf("fattura-%d.pdf", id))
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		return 0, errors.Wrap(err, "write document")
	}

	if err := os.Remove(path); err != nil {
		logger.WithError(err).WithField("file", path).Warn("can't remove processed XML file")
	}

	logger.WithFields(logrus.Fields{
		"id":     id,
		"number": inv.Number,
		"pdf":    out,
	}).Info("invoice processed")

	return id, nil
}
