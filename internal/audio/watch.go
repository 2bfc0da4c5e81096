package audio

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/callsight/callsight/internal/types"
)

// Watch tails the source directory and ingests new recordings as they
// land. Records are delivered on the returned channel until stop is
// closed. Writers that are still flushing get a short settle delay before
// the file is picked up.
func (ing *Ingester) Watch(sourceDir string, stop <-chan struct{}) (<-chan *types.CallRecord, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(sourceDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", sourceDir, err)
	}

	out := make(chan *types.CallRecord)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if !ing.normalizer.Supported(event.Name) {
					continue
				}
				time.Sleep(500 * time.Millisecond)
				out <- ing.IngestFile(event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				ing.log.WithStage("ingest").WithField("error", err.Error()).Warn("watcher error")
			case <-stop:
				return
			}
		}
	}()
	return out, nil
}
