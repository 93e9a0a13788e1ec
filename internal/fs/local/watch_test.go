package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsbridge/backend/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, events <-chan fs.ChangeEvent, match func(fs.ChangeEvent) bool) fs.ChangeEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("event channel closed before match")
			}
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for change event")
		}
	}
}

func TestSubscribeMissingRoot(t *testing.T) {
	r := New(nil)
	_, err := r.Subscribe(context.Background(), loc(t, filepath.Join(t.TempDir(), "gone")), false)
	assert.ErrorIs(t, err, fs.ErrNotFound)
}

func TestSubscribeReportsCreate(t *testing.T) {
	dir := t.TempDir()
	r := New(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := r.Subscribe(ctx, loc(t, dir), false)
	require.NoError(t, err)

	p := filepath.Join(dir, "born.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	ev := waitFor(t, events, func(ev fs.ChangeEvent) bool {
		return ev.Type == fs.Created
	})
	assert.Contains(t, ev.URI, "born.txt")
}

func TestSubscribeReportsDelete(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "doomed")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	r := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := r.Subscribe(ctx, loc(t, dir), false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(p))

	ev := waitFor(t, events, func(ev fs.ChangeEvent) bool {
		return ev.Type == fs.Deleted
	})
	assert.Contains(t, ev.URI, "doomed")
}

func TestSubscribeRecursiveSeesNestedChanges(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	r := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := r.Subscribe(ctx, loc(t, dir), true)
	require.NoError(t, err)

	p := filepath.Join(nested, "deep.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	ev := waitFor(t, events, func(ev fs.ChangeEvent) bool {
		return ev.Type == fs.Created
	})
	assert.Contains(t, ev.URI, "deep.txt")
}

func TestSubscribeChannelClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	r := New(nil)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := r.Subscribe(ctx, loc(t, dir), false)
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-events:
		for open {
			_, open = <-events
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
