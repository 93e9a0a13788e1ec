// Package memory provides an in-process resolver for the mem scheme. It
// backs bridge tests as the fake storage backend and doubles as a scratch
// filesystem for demos.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsbridge/backend/internal/fs"
)

const scheme = "mem"

type node struct {
	dir   bool
	data  []byte
	ctime time.Time
	mtime time.Time
}

type subscriber struct {
	path      string
	recursive bool
	done      <-chan struct{}

	// mu serializes sends with the cancellation close; sending on ch
	// without holding it races channel shutdown.
	mu     sync.Mutex
	ch     chan fs.ChangeEvent
	closed bool
}

// Resolver is a mutex-guarded path map with channel-based change feeds.
type Resolver struct {
	mu    sync.Mutex
	nodes map[string]*node
	subs  []*subscriber
}

// New creates an empty memory resolver with a root directory.
func New() *Resolver {
	return &Resolver{
		nodes: map[string]*node{
			"/": {dir: true, ctime: time.Now(), mtime: time.Now()},
		},
	}
}

func (r *Resolver) Scheme() string { return scheme }

func clean(u *url.URL) string {
	p := path.Clean("/" + u.Path)
	return p
}

func (r *Resolver) Stat(ctx context.Context, u *url.URL) (fs.FileStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[clean(u)]
	if !ok {
		return fs.FileStat{}, fmt.Errorf("%w: %s", fs.ErrNotFound, u)
	}
	return statOf(n), nil
}

func statOf(n *node) fs.FileStat {
	typ := fs.TypeFile
	if n.dir {
		typ = fs.TypeDirectory
	}
	return fs.FileStat{
		Type:  typ,
		CTime: n.ctime.UnixMilli(),
		MTime: n.mtime.UnixMilli(),
		Size:  int64(len(n.data)),
	}
}

func (r *Resolver) List(ctx context.Context, u *url.URL) ([]fs.DirEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := clean(u)
	n, ok := r.nodes[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", fs.ErrNotFound, u)
	}
	if !n.dir {
		return nil, fmt.Errorf("%w: %s", fs.ErrNotADirectory, u)
	}

	entries := []fs.DirEntry{}
	for childPath, child := range r.nodes {
		if childPath == p {
			continue
		}
		if path.Dir(childPath) != p {
			continue
		}
		typ := fs.TypeFile
		if child.dir {
			typ = fs.TypeDirectory
		}
		entries = append(entries, fs.DirEntry{Name: path.Base(childPath), Type: typ})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (r *Resolver) OpenRead(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[clean(u)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", fs.ErrNotFound, u)
	}
	if n.dir {
		return nil, fmt.Errorf("%w: is a directory: %s", fs.ErrNotADirectory, u)
	}
	return io.NopCloser(bytes.NewReader(n.data)), nil
}

// memWriter buffers writes and commits the node on Close, so a written file
// becomes visible atomically with its change event.
type memWriter struct {
	r   *Resolver
	p   string
	uri string
	buf bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memWriter) Close() error {
	w.r.mu.Lock()
	now := time.Now()
	n, existed := w.r.nodes[w.p]
	if !existed {
		n = &node{ctime: now}
		w.r.nodes[w.p] = n
	}
	n.data = w.buf.Bytes()
	n.mtime = now
	w.r.mu.Unlock()

	if existed {
		w.r.emit(fs.Changed, w.p, w.uri)
	} else {
		w.r.emit(fs.Created, w.p, w.uri)
	}
	return nil
}

func (r *Resolver) OpenWrite(ctx context.Context, u *url.URL) (io.WriteCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := clean(u)
	if n, ok := r.nodes[p]; ok && n.dir {
		return nil, fmt.Errorf("%w: is a directory: %s", fs.ErrNotADirectory, u)
	}
	if parent, ok := r.nodes[path.Dir(p)]; !ok || !parent.dir {
		return nil, fmt.Errorf("%w: %s", fs.ErrNotFound, fs.Parent(u))
	}
	return &memWriter{r: r, p: p, uri: r.uriFor(p)}, nil
}

func (r *Resolver) Mkdir(ctx context.Context, u *url.URL) error {
	r.mu.Lock()
	p := clean(u)
	if _, ok := r.nodes[p]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", fs.ErrAlreadyExists, u)
	}
	if parent, ok := r.nodes[path.Dir(p)]; !ok || !parent.dir {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", fs.ErrNotFound, fs.Parent(u))
	}
	now := time.Now()
	r.nodes[p] = &node{dir: true, ctime: now, mtime: now}
	r.mu.Unlock()

	r.emit(fs.Created, p, r.uriFor(p))
	return nil
}

func (r *Resolver) Remove(ctx context.Context, u *url.URL, recursive bool) error {
	r.mu.Lock()
	p := clean(u)
	n, ok := r.nodes[p]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", fs.ErrNotFound, u)
	}

	var removed []string
	if n.dir {
		for childPath := range r.nodes {
			if childPath != p && strings.HasPrefix(childPath, p+"/") {
				if !recursive {
					r.mu.Unlock()
					return fmt.Errorf("%w: %s", fs.ErrDirectoryNotEmpty, u)
				}
				removed = append(removed, childPath)
			}
		}
	}
	removed = append(removed, p)
	for _, rp := range removed {
		delete(r.nodes, rp)
	}
	r.mu.Unlock()

	for _, rp := range removed {
		r.emit(fs.Deleted, rp, r.uriFor(rp))
	}
	return nil
}

func (r *Resolver) Rename(ctx context.Context, oldLoc, newLoc *url.URL, overwrite bool) error {
	r.mu.Lock()
	oldPath, newPath := clean(oldLoc), clean(newLoc)
	if _, ok := r.nodes[oldPath]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", fs.ErrNotFound, oldLoc)
	}
	if _, ok := r.nodes[newPath]; ok && !overwrite {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", fs.ErrAlreadyExists, newLoc)
	}

	moved := map[string]string{oldPath: newPath}
	for childPath := range r.nodes {
		if strings.HasPrefix(childPath, oldPath+"/") {
			moved[childPath] = newPath + strings.TrimPrefix(childPath, oldPath)
		}
	}
	for from, to := range moved {
		r.nodes[to] = r.nodes[from]
		delete(r.nodes, from)
	}
	r.mu.Unlock()

	r.emit(fs.Deleted, oldPath, r.uriFor(oldPath))
	r.emit(fs.Created, newPath, r.uriFor(newPath))
	return nil
}

func (r *Resolver) Subscribe(ctx context.Context, u *url.URL, recursive bool) (<-chan fs.ChangeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := clean(u)
	if _, ok := r.nodes[p]; !ok {
		return nil, fmt.Errorf("%w: %s", fs.ErrNotFound, u)
	}

	sub := &subscriber{
		path:      p,
		recursive: recursive,
		ch:        make(chan fs.ChangeEvent, 64),
		done:      ctx.Done(),
	}
	r.subs = append(r.subs, sub)

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		for i, s := range r.subs {
			if s == sub {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				break
			}
		}
		r.mu.Unlock()

		sub.mu.Lock()
		sub.closed = true
		close(sub.ch)
		sub.mu.Unlock()
	}()

	return sub.ch, nil
}

func (r *Resolver) uriFor(p string) string {
	return (&url.URL{Scheme: scheme, Path: p}).String()
}

func (r *Resolver) emit(typ fs.ChangeType, p, uri string) {
	r.mu.Lock()
	subs := make([]*subscriber, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, sub := range subs {
		if !sub.matches(p) {
			continue
		}
		sub.mu.Lock()
		if !sub.closed {
			select {
			case sub.ch <- fs.ChangeEvent{Type: typ, URI: uri}:
			case <-sub.done:
			}
		}
		sub.mu.Unlock()
	}
}

func (s *subscriber) matches(p string) bool {
	if p == s.path {
		return true
	}
	prefix := s.path
	if prefix != "/" {
		prefix += "/"
	}
	if !strings.HasPrefix(p, prefix) {
		return false
	}
	if s.recursive {
		return true
	}
	// non-recursive: direct children only
	return !strings.Contains(strings.TrimPrefix(p, prefix), "/")
}
