package fs

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// FileType identifies what a location resolves to. The numeric values are a
// wire contract shared with the client enumeration and must not be renumbered.
type FileType uint32

const (
	TypeUnknown      FileType = 0
	TypeFile         FileType = 1
	TypeDirectory    FileType = 2
	TypeSymbolicLink FileType = 64
)

// ChangeType classifies a filesystem mutation. Values are wire constants.
type ChangeType int

const (
	Changed ChangeType = 1
	Created ChangeType = 2
	Deleted ChangeType = 3
)

func (c ChangeType) String() string {
	switch c {
	case Changed:
		return "changed"
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("changetype(%d)", int(c))
	}
}

// FileStat is the metadata snapshot for a single location. Timestamps are
// milliseconds since the Unix epoch. Produced fresh per call, never cached.
type FileStat struct {
	Type  FileType `json:"type"`
	CTime int64    `json:"ctime"`
	MTime int64    `json:"mtime"`
	Size  int64    `json:"size"`
}

// DirEntry is one directory listing entry. Name is the last path segment.
type DirEntry struct {
	Name string   `json:"name"`
	Type FileType `json:"type"`
}

// ChangeEvent is a single backend-observed mutation under a watched location.
type ChangeEvent struct {
	Type ChangeType `json:"type"`
	URI  string     `json:"uri"`
}

// ParseLocation validates a raw URI string and returns its parsed form.
// Malformed input is a request-time failure, never a panic.
func ParseLocation(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLocation, raw, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme: %s", ErrInvalidLocation, raw)
	}
	return u, nil
}

// Parent returns the location of the containing directory.
func Parent(u *url.URL) *url.URL {
	parent := *u
	parent.Path = path.Dir(strings.TrimSuffix(u.Path, "/"))
	return &parent
}

// Name returns the last path segment of a location.
func Name(u *url.URL) string {
	return path.Base(strings.TrimSuffix(u.Path, "/"))
}
