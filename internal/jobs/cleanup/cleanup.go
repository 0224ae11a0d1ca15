package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	mediasvc "github.com/ivankudzin/loveconnect/backend/internal/services/media"
)

const (
	defaultGrace    = time.Hour
	defaultInterval = 6 * time.Hour
)

type ImageRefLister interface {
	ListImageRefs(ctx context.Context) (map[string]struct{}, error)
}

type ImageStore interface {
	ListProfileImages(ctx context.Context) ([]mediasvc.ObjectInfo, error)
	Delete(ctx context.Context, ref string) error
}

// Job removes stored profile images no user row points at. These are left
// behind when an old image delete fails after a swap, or when a request dies
// between storing an upload and writing the row.
type Job struct {
	refs     ImageRefLister
	images   ImageStore
	grace    time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewOrphanImageJob(refs ImageRefLister, images ImageStore, grace, interval time.Duration, logger *zap.Logger) *Job {
	if grace <= 0 {
		grace = defaultGrace
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		refs:     refs,
		images:   images,
		grace:    grace,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Run performs one sweep and returns how many objects were deleted.
func (j *Job) Run(ctx context.Context) (int, error) {
	if j.refs == nil || j.images == nil {
		return 0, nil
	}

	// Objects are listed before refs so an upload that lands in between is
	// either referenced already or still inside the grace window.
	objects, err := j.images.ListProfileImages(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored images: %w", err)
	}
	if len(objects) == 0 {
		return 0, nil
	}

	refs, err := j.refs.ListImageRefs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list referenced images: %w", err)
	}

	cutoff := j.now().Add(-j.grace)
	deleted := 0
	for _, object := range objects {
		if _, ok := refs[object.Key]; ok {
			continue
		}
		if _, ok := refs["/uploads/"+object.Key]; ok {
			continue
		}
		if object.ModifiedAt.After(cutoff) {
			continue
		}
		if err := j.images.Delete(ctx, object.Key); err != nil {
			j.logger.Warn("failed to delete orphaned profile image", zap.Error(err), zap.String("object_key", object.Key))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		j.logger.Info("orphaned profile image cleanup completed", zap.Int("deleted", deleted))
	}
	return deleted, nil
}

// Loop runs a sweep immediately and then every interval until ctx is done.
// Sweep failures are logged; the loop keeps going.
func (j *Job) Loop(ctx context.Context) {
	j.runLogged(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

func (j *Job) runLogged(ctx context.Context) {
	if _, err := j.Run(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("orphaned profile image cleanup failed", zap.Error(err))
	}
}
