package local

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charlievieth/fastwalk"
	"github.com/fsbridge/backend/internal/fs"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// subscribeBuffer bounds how many undelivered events a slow consumer can
// accumulate before the forwarder blocks on the backend feed.
const subscribeBuffer = 64

// Subscribe registers a native watcher under a location. Recursive
// subscriptions walk the existing subtree up front and add directories
// created later, since fsnotify watches are per-directory.
func (r *Resolver) Subscribe(ctx context.Context, u *url.URL, recursive bool) (<-chan fs.ChangeEvent, error) {
	root, err := toPath(u)
	if err != nil {
		return nil, err
	}
	if _, err := os.Lstat(root); err != nil {
		return nil, fs.Classify(err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(root); err != nil {
		watcher.Close()
		return nil, fs.Classify(err)
	}
	if recursive {
		if err := addSubdirs(watcher, root); err != nil {
			watcher.Close()
			return nil, fs.Classify(err)
		}
	}

	out := make(chan fs.ChangeEvent, subscribeBuffer)
	go r.forward(ctx, watcher, root, recursive, out)
	return out, nil
}

func addSubdirs(watcher *fsnotify.Watcher, root string) error {
	conf := fastwalk.Config{Follow: false}
	return fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // entry vanished mid-walk
		}
		if d.IsDir() && path != root {
			return watcher.Add(path)
		}
		return nil
	})
}

func (r *Resolver) forward(ctx context.Context, watcher *fsnotify.Watcher, root string, recursive bool, out chan<- fs.ChangeEvent) {
	defer watcher.Close()
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			typ, ok := mapOp(event.Op)
			if !ok {
				continue
			}
			if recursive && typ == fs.Created {
				if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						r.logger.Warn("failed to watch new directory",
							zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			uri := url.URL{Scheme: scheme, Path: filepath.ToSlash(event.Name)}
			select {
			case out <- fs.ChangeEvent{Type: typ, URI: uri.String()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("watcher error", zap.String("root", root), zap.Error(err))
		}
	}
}

func mapOp(op fsnotify.Op) (fs.ChangeType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return fs.Created, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return fs.Deleted, true
	case op.Has(fsnotify.Write), op.Has(fsnotify.Chmod):
		return fs.Changed, true
	default:
		return 0, false
	}
}
