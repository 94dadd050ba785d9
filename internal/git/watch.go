package git

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/henri123lemoine/stashy/internal/debug"
)

// WatchStash reports changes to refs/stash or its reflog. Bursts of file
// events are coalesced into a single pending signal. The channel is closed
// when ctx is done.
func (r *Repo) WatchStash(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// refs/stash itself, and logs/refs/stash which every stash command rewrites.
	// logs/refs does not exist until the first reflog entry is written.
	dirs := []string{
		filepath.Join(r.GitDir, "refs"),
		filepath.Join(r.GitDir, "logs", "refs"),
	}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isStashEvent(ev) {
					continue
				}
				debug.Log("stash ref changed: %s", ev)
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				debug.Log("stash watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

func isStashEvent(ev fsnotify.Event) bool {
	if filepath.Base(ev.Name) != "stash" {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
