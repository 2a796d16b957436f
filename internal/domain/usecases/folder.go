// Package usecases - folder.go feeds files dropped into a directory through the upload flow.
package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/0xcro3dile/netbot-go/internal/domain/ports"
)

// FolderIngestor uploads every new file that appears in a watched directory.
// Files go through the IngestionController one at a time, exactly as if the
// user had picked them in the file modal.
type FolderIngestor struct {
	watcher    ports.FileWatcher
	loader     ports.FileLoader
	controller *IngestionController

	mu       sync.Mutex
	ingested map[string]bool
}

// NewFolderIngestor creates an ingestor with injected dependencies.
func NewFolderIngestor(watcher ports.FileWatcher, loader ports.FileLoader, controller *IngestionController) *FolderIngestor {
	return &FolderIngestor{
		watcher:    watcher,
		loader:     loader,
		controller: controller,
		ingested:   make(map[string]bool),
	}
}

// Run watches dir until ctx is cancelled or the watcher closes its channel.
func (f *FolderIngestor) Run(ctx context.Context, dir string) error {
	events, err := f.watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}
	log.Info().Str("dir", dir).Msg("watching for new documents")

	for ev := range events {
		switch ev.Operation {
		case ports.FileCreated, ports.FileModified:
			f.Ingest(ctx, ev.Path)
		case ports.FileDeleted:
			f.forget(ev.Path)
		}
	}
	return ctx.Err()
}

// Ingest uploads the file at path unless it was already uploaded.
// Files that are still empty are skipped; a later write event retries them.
func (f *FolderIngestor) Ingest(ctx context.Context, path string) error {
	f.mu.Lock()
	done := f.ingested[path]
	f.mu.Unlock()
	if done {
		return nil
	}

	file, err := f.loader.Load(ctx, path)
	if errors.Is(err, ports.ErrEmptyFile) {
		log.Debug().Str("path", path).Msg("file still empty, waiting for content")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to read file")
		return err
	}

	f.controller.OpenFile()
	f.controller.SelectFile(*file)
	if err := f.controller.SubmitFile(ctx); err != nil {
		f.controller.Close()
		return err
	}

	f.mu.Lock()
	f.ingested[path] = true
	f.mu.Unlock()
	log.Info().Str("path", path).Msg("document uploaded")
	return nil
}

// forget lets a re-created file be uploaded again.
func (f *FolderIngestor) forget(path string) {
	f.mu.Lock()
	delete(f.ingested, path)
	f.mu.Unlock()
}
