package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsbridge/backend/internal/fs"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Watch registers a change subscription with the storage resolver and
// returns once registration succeeds. Matching changes are then pushed as
// onDidChangeFile notifications for the rest of the process lifetime; the
// protocol defines no unwatch.
func (b *Bridge) Watch(ctx context.Context, p WatchParams) error {
	if b.notifier == nil {
		return fmt.Errorf("%w: no notification channel", fs.ErrUnsupported)
	}
	u, res, err := b.resolve(p.URI)
	if err != nil {
		return err
	}
	for _, pattern := range p.Excludes {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad exclude pattern %q", fs.ErrInvalidLocation, pattern)
		}
	}

	events, err := res.Subscribe(b.watchCtx, u, p.Recursive)
	if err != nil {
		return fs.Classify(err)
	}

	id := uuid.NewString()
	if b.metrics != nil {
		b.metrics.WatchesActive.Inc()
	}
	b.logger.Info("watch registered",
		zap.String("subscription", id),
		zap.String("uri", p.URI),
		zap.Bool("recursive", p.Recursive),
		zap.Strings("excludes", p.Excludes))

	go b.pump(id, u.Path, p.Excludes, events)
	return nil
}

// pump forwards backend changes to the client in delivery order. No
// reordering, deduplication, or coalescing is applied.
func (b *Bridge) pump(id, root string, excludes []string, events <-chan fs.ChangeEvent) {
	defer func() {
		if b.metrics != nil {
			b.metrics.WatchesActive.Dec()
		}
		b.logger.Info("watch terminated", zap.String("subscription", id))
	}()

	for event := range events {
		if b.excluded(root, excludes, event) {
			continue
		}
		note, err := translateChange(event)
		if err != nil {
			// never invent a change kind; surface and skip
			b.logger.Error("untranslatable change event",
				zap.String("subscription", id),
				zap.String("uri", event.URI),
				zap.Error(err))
			if b.metrics != nil {
				b.metrics.NotificationErrors.Inc()
			}
			continue
		}
		if err := b.notifier.Notify(MethodDidChangeFile, note); err != nil {
			b.logger.Warn("notification delivery failed",
				zap.String("subscription", id), zap.Error(err))
			continue
		}
		if b.metrics != nil {
			b.metrics.NotificationsTotal.Inc()
		}
	}
}

// translateChange maps a backend change onto the fixed 3-valued wire
// taxonomy. Any other kind is a translation failure, not a guess.
func translateChange(event fs.ChangeEvent) (FileChangeNotification, error) {
	switch event.Type {
	case fs.Changed, fs.Created, fs.Deleted:
		return FileChangeNotification{Type: int(event.Type), URI: event.URI}, nil
	default:
		return FileChangeNotification{}, fmt.Errorf("unknown change type: %d", int(event.Type))
	}
}

func (b *Bridge) excluded(root string, excludes []string, event fs.ChangeEvent) bool {
	if len(excludes) == 0 {
		return false
	}
	u, err := fs.ParseLocation(event.URI)
	if err != nil {
		return false
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(u.Path, strings.TrimSuffix(root, "/")), "/")
	for _, pattern := range excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, fs.Name(u)); ok {
			return true
		}
	}
	return false
}
