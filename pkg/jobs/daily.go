package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Daily fires once per day at a wall-clock time in a fixed location.
type Daily struct {
	hour, minute int
	loc          *time.Location
	logger       *zap.Logger
	now          func() time.Time
	after        func(time.Duration) <-chan time.Time
}

// NewDaily parses an "HH:MM" clock time. A nil location means time.Local.
func NewDaily(clock string, loc *time.Location, logger *zap.Logger) (*Daily, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return nil, fmt.Errorf("parse daily clock %q: %w", clock, err)
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Daily{hour: t.Hour(), minute: t.Minute(), loc: loc, logger: logger, now: time.Now, after: time.After}, nil
}

// Next returns the first firing time strictly after from.
func (d *Daily) Next(from time.Time) time.Time {
	local := from.In(d.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.hour, d.minute, 0, 0, d.loc)
	}
	return next
}

// Run calls fire with the local calendar day of every firing until ctx ends.
func (d *Daily) Run(ctx context.Context, fire func(day time.Time)) {
	for {
		next := d.Next(d.now())
		d.logger.Debug("next daily run scheduled", zap.Time("at", next))
		select {
		case <-ctx.Done():
			return
		case <-d.after(next.Sub(d.now())):
			fire(time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, d.loc))
		}
	}
}
