package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rafaeljusto/tocloud"
	"github.com/rafaeljusto/tocloud/internal/log"
	"github.com/rafaeljusto/tocloud/internal/storage"
)

type enqueuer interface {
	Enqueue(ctx context.Context, request tocloud.Request) (<-chan tocloud.Result, error)
}

// watcher looks for new or modified activity files in a directory. The
// activity identifier is the file name without the extension.
type watcher struct {
	directory  string
	extensions []string
	queue      enqueuer
	storage    storage.Storage
	logger     log.Logger

	lock    sync.Mutex
	synced  map[string]time.Time
	pending map[string]bool
	results sync.WaitGroup
}

// sweep enqueues every activity file modified since its last sync. A file is
// not enqueued again while a previous request for it is pending.
func (w *watcher) sweep(ctx context.Context) error {
	entries, err := os.ReadDir(w.directory)
	if err != nil {
		return errors.WithStack(err)
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	if w.synced == nil {
		w.load()
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		extension, ok := w.activityExtension(entry.Name())
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// removed after the directory was read
			continue
		}

		activityID := entry.Name()[:len(entry.Name())-len(extension)]
		modifiedAt := info.ModTime()

		if w.pending[activityID] {
			continue
		}

		if syncedAt, ok := w.synced[activityID]; ok && !modifiedAt.After(syncedAt) {
			continue
		}

		result, err := w.queue.Enqueue(ctx, tocloud.Request{
			Filename:     filepath.Join(w.directory, entry.Name()),
			ActivityID:   activityID,
			ActivityName: entry.Name(),
		})

		if err != nil {
			// try again on the next sweep
			w.logger.Warningf("tocloud: activity “%s” not scheduled. details: %s", activityID, err)
			return nil
		}

		w.pending[activityID] = true
		w.results.Add(1)
		go w.wait(activityID, modifiedAt, result)
	}

	return nil
}

func (w *watcher) wait(activityID string, modifiedAt time.Time, result <-chan tocloud.Result) {
	defer w.results.Done()

	r := <-result

	w.lock.Lock()
	defer w.lock.Unlock()

	delete(w.pending, activityID)

	if r.Err != nil {
		w.logger.Warningf("tocloud: activity “%s” not synced. details: %s", activityID, r.Err)
		return
	}

	w.synced[activityID] = modifiedAt
}

// load retrieves from the ledger when each activity was synced, so a restart
// doesn't send everything again.
func (w *watcher) load() {
	w.synced = make(map[string]time.Time)
	w.pending = make(map[string]bool)

	if w.storage == nil {
		return
	}

	records, err := w.storage.List()
	if err != nil {
		w.logger.Warningf("tocloud: error loading synced activities. details: %s", err)
		return
	}

	for _, record := range records {
		if record.ActivityID == "" {
			continue
		}

		if record.SyncedAt.After(w.synced[record.ActivityID]) {
			w.synced[record.ActivityID] = record.SyncedAt
		}
	}
}

func (w *watcher) activityExtension(name string) (string, bool) {
	extension := strings.ToLower(filepath.Ext(name))
	if extension == "" || len(extension) == len(name) {
		return "", false
	}

	for _, e := range w.extensions {
		if extension == e {
			return extension, true
		}
	}

	return "", false
}
