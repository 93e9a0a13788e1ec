// Package bridge implements the request dispatcher: the public operation
// surface translating protocol requests into storage resolver calls.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/fsbridge/backend/internal/codec"
	"github.com/fsbridge/backend/internal/fs"
	"github.com/fsbridge/backend/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// Notifier pushes a server-to-client notification, uncorrelated with any
// pending request. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(method string, params interface{}) error
}

// Bridge dispatches filesystem operations against an injected scheme
// registry. It holds no cache of filesystem state and no per-location lock:
// composed check-then-act sequences (writeFile, rename) are racy under
// concurrent mutation of the same location, and that is the documented
// contract. Concurrency correctness for a single location belongs to the
// resolver.
type Bridge struct {
	registry *fs.Registry
	notifier Notifier
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	// watchCtx scopes subscription lifetimes; the protocol defines no
	// unwatch, so subscriptions live until this context ends.
	watchCtx context.Context
}

// New creates a bridge over the given registry. notifier may be nil until
// SetNotifier is called; watch registration fails without one.
func New(watchCtx context.Context, registry *fs.Registry, notifier Notifier, logger *zap.Logger, metrics *monitoring.Metrics) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		registry: registry,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		watchCtx: watchCtx,
	}
}

// SetNotifier wires the outbound notification sink.
func (b *Bridge) SetNotifier(n Notifier) { b.notifier = n }

// Schemes returns the registered scheme identifiers. An empty set is valid.
func (b *Bridge) Schemes(ctx context.Context) []string {
	return b.registry.Schemes()
}

// Stat returns fresh metadata for a location.
func (b *Bridge) Stat(ctx context.Context, p URIParams) (*fs.FileStat, error) {
	u, res, err := b.resolve(p.URI)
	if err != nil {
		return nil, err
	}
	stat, err := res.Stat(ctx, u)
	if err != nil {
		return nil, fs.Classify(err)
	}
	return &stat, nil
}

// ReadDirectory lists a directory. Entry order is backend-defined.
func (b *Bridge) ReadDirectory(ctx context.Context, p URIParams) ([]fs.DirEntry, error) {
	u, res, err := b.resolve(p.URI)
	if err != nil {
		return nil, err
	}
	entries, err := res.List(ctx, u)
	if err != nil {
		return nil, fs.Classify(err)
	}
	return entries, nil
}

// CreateDirectory creates a single directory level.
func (b *Bridge) CreateDirectory(ctx context.Context, p URIParams) error {
	u, res, err := b.resolve(p.URI)
	if err != nil {
		return err
	}
	return fs.Classify(res.Mkdir(ctx, u))
}

// ReadFile streams the resource through the chunked base64 codec.
func (b *Bridge) ReadFile(ctx context.Context, p URIParams) (*LocationContent, error) {
	u, res, err := b.resolve(p.URI)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("reading file", zap.String("uri", p.URI))

	src, err := res.OpenRead(ctx, u)
	if err != nil {
		return nil, fs.Classify(err)
	}
	defer src.Close()

	content, err := codec.EncodeStream(src)
	if err != nil {
		return nil, fs.Classify(err)
	}
	return &LocationContent{Content: content}, nil
}

// WriteFile decodes the content and replaces the target's bytes entirely.
// The existence checks and the write are not atomic with respect to other
// writers of the same location.
func (b *Bridge) WriteFile(ctx context.Context, p WriteFileParams) error {
	u, res, err := b.resolve(p.URI)
	if err != nil {
		return err
	}

	exists, err := b.exists(ctx, res, u)
	if err != nil {
		return err
	}
	if !exists && !p.Create {
		return fmt.Errorf("%w: %s", fs.ErrNotFound, p.URI)
	}
	if p.Create {
		parent := fs.Parent(u)
		parentExists, err := b.exists(ctx, res, parent)
		if err != nil {
			return err
		}
		if !parentExists {
			return fmt.Errorf("%w: %s", fs.ErrNotFound, parent)
		}
	}
	if exists && p.Create && !p.Overwrite {
		return fmt.Errorf("%w: %s", fs.ErrAlreadyExists, p.URI)
	}

	data, err := codec.Decode(p.Content)
	if err != nil {
		return err
	}

	dst, err := res.OpenWrite(ctx, u)
	if err != nil {
		return fs.Classify(err)
	}
	if _, err := dst.Write(data); err != nil {
		dst.Close()
		return fs.Classify(err)
	}
	return fs.Classify(dst.Close())
}

// Delete removes a location.
func (b *Bridge) Delete(ctx context.Context, p DeleteParams) error {
	u, res, err := b.resolve(p.URI)
	if err != nil {
		return err
	}
	return fs.Classify(res.Remove(ctx, u, p.Recursive))
}

// Rename moves a location within its scheme.
func (b *Bridge) Rename(ctx context.Context, p RenameParams) error {
	oldLoc, res, err := b.resolve(p.OldURI)
	if err != nil {
		return err
	}
	newLoc, err := fs.ParseLocation(p.NewURI)
	if err != nil {
		return err
	}
	if newLoc.Scheme != oldLoc.Scheme {
		return fmt.Errorf("%w: rename across schemes %q and %q", fs.ErrUnsupported, oldLoc.Scheme, newLoc.Scheme)
	}
	return fs.Classify(res.Rename(ctx, oldLoc, newLoc, p.Overwrite))
}

func (b *Bridge) resolve(raw string) (*url.URL, fs.Resolver, error) {
	u, err := fs.ParseLocation(raw)
	if err != nil {
		return nil, nil, err
	}
	res, err := b.registry.Resolve(u)
	if err != nil {
		return nil, nil, err
	}
	return u, res, nil
}

func (b *Bridge) exists(ctx context.Context, res fs.Resolver, u *url.URL) (bool, error) {
	_, err := res.Stat(ctx, u)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(fs.Classify(err), fs.ErrNotFound):
		return false, nil
	default:
		return false, fs.Classify(err)
	}
}
