package fs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
)

// Resolver is the capability interface a storage backend implements for one
// URI scheme. All blocking calls take a context; cancellation behavior is up
// to the backend. Implementations must be safe for concurrent use.
type Resolver interface {
	// Scheme returns the URI scheme this resolver serves.
	Scheme() string

	// Stat returns fresh metadata for a location.
	Stat(ctx context.Context, u *url.URL) (FileStat, error)

	// List returns the entries of a directory. Order is backend-defined.
	List(ctx context.Context, u *url.URL) ([]DirEntry, error)

	// OpenRead opens a location for streaming reads.
	OpenRead(ctx context.Context, u *url.URL) (io.ReadCloser, error)

	// OpenWrite opens a location for writing, replacing existing content.
	OpenWrite(ctx context.Context, u *url.URL) (io.WriteCloser, error)

	// Mkdir creates a single directory level. The parent must exist.
	Mkdir(ctx context.Context, u *url.URL) error

	// Remove deletes a location. A non-recursive remove of a non-empty
	// directory fails with ErrDirectoryNotEmpty.
	Remove(ctx context.Context, u *url.URL, recursive bool) error

	// Rename moves a location within the same scheme. Without overwrite the
	// destination must not exist.
	Rename(ctx context.Context, oldLoc, newLoc *url.URL, overwrite bool) error

	// Subscribe registers a change feed under a location. The returned
	// channel delivers every backend-observed change until ctx is canceled
	// or the resolver shuts down; the resolver closes the channel when done.
	Subscribe(ctx context.Context, u *url.URL, recursive bool) (<-chan ChangeEvent, error)
}

// Registry maps URI schemes to resolvers. It is the injected Storage
// Resolver boundary: the dispatcher looks schemes up here and never branches
// on scheme itself.
type Registry struct {
	resolvers sync.Map
}

// NewRegistry creates an empty scheme registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a resolver for its scheme, replacing any previous one.
func (r *Registry) Register(res Resolver) error {
	scheme := res.Scheme()
	if scheme == "" {
		return fmt.Errorf("resolver scheme cannot be empty")
	}
	r.resolvers.Store(scheme, res)
	return nil
}

// Lookup returns the resolver for a scheme.
func (r *Registry) Lookup(scheme string) (Resolver, bool) {
	val, ok := r.resolvers.Load(scheme)
	if !ok {
		return nil, false
	}
	return val.(Resolver), true
}

// Resolve returns the resolver responsible for a location, or
// ErrUnsupported when no resolver is registered for its scheme.
func (r *Registry) Resolve(u *url.URL) (Resolver, error) {
	res, ok := r.Lookup(u.Scheme)
	if !ok {
		return nil, fmt.Errorf("%w: no resolver for scheme %q", ErrUnsupported, u.Scheme)
	}
	return res, nil
}

// Schemes returns the sorted set of registered schemes, without duplicates.
func (r *Registry) Schemes() []string {
	schemes := []string{}
	r.resolvers.Range(func(key, _ interface{}) bool {
		schemes = append(schemes, key.(string))
		return true
	})
	sort.Strings(schemes)
	return schemes
}
