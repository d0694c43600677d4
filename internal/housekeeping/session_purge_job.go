package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-chatbot/internal/logger"
)

// DefaultSessionRetention is how long a session-order row is kept after it
// was created.
const DefaultSessionRetention = 24 * time.Hour

type sessionPurger interface {
	PurgeSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type SessionPurgeJobParams struct {
	Logger    *logger.Logger
	Store     sessionPurger
	Retention time.Duration
}

// NewSessionPurgeJob deletes session-order rows older than the retention
// window.  Placed orders are never touched.
func NewSessionPurgeJob(params SessionPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = DefaultSessionRetention
	}
	return &sessionPurgeJob{
		logg:      params.Logger,
		store:     params.Store,
		retention: retention,
		now:       time.Now,
	}, nil
}

type sessionPurgeJob struct {
	logg      *logger.Logger
	store     sessionPurger
	retention time.Duration
	now       func() time.Time
}

func (j *sessionPurgeJob) Name() string { return "session-purge" }

func (j *sessionPurgeJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.store.PurgeSessionsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "session purge complete")
	return nil
}
