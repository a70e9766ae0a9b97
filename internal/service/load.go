// Package service loads the manager and agent dashboards and carries out
// manager mutations and login. Services convert store failures into
// domain.AppError at their boundary.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gameportal/portal/internal/domain"
	"github.com/gameportal/portal/internal/store"
	"golang.org/x/sync/errgroup"
)

// Dashboard load statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// loader runs a dashboard's fetches concurrently. A failed fetch is logged,
// recorded and replaced by an empty collection so aggregation still runs.
type loader struct {
	ctx    context.Context
	logger *slog.Logger
	view   string
	group  errgroup.Group

	mu     sync.Mutex
	failed []string
}

func newLoader(ctx context.Context, logger *slog.Logger, view string) *loader {
	return &loader{ctx: ctx, logger: logger, view: view}
}

func (l *loader) fail(collection string, err error) {
	l.logger.Warn("dashboard fetch failed",
		"view", l.view,
		"collection", collection,
		"error", err,
	)
	l.mu.Lock()
	l.failed = append(l.failed, collection)
	l.mu.Unlock()
}

// wait blocks until every fetch finished and returns the load status and
// the sorted list of failed collections.
func (l *loader) wait() (string, []string) {
	_ = l.group.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.failed) == 0 {
		return StatusOK, nil
	}
	failed := append([]string(nil), l.failed...)
	sort.Strings(failed)
	return StatusDegraded, failed
}

// fetch schedules fn on l and stores its result in dst, or an empty slice on failure.
func fetch[T any](l *loader, collection string, dst *[]T, fn func(context.Context) ([]T, error)) {
	l.group.Go(func() error {
		items, err := fn(l.ctx)
		if err != nil {
			l.fail(collection, err)
			items = nil
		}
		if items == nil {
			items = []T{}
		}
		*dst = items
		return nil
	})
}

// resolveDate picks the analytics target date: the request's, then the
// configured one, then today in UTC.
func resolveDate(requested, configured string, now func() time.Time) (string, error) {
	date := strings.TrimSpace(requested)
	if date == "" {
		date = configured
	}
	if date == "" {
		return now().UTC().Format(domain.DateLayout), nil
	}
	if err := domain.ValidateDate(date); err != nil {
		return "", domain.ErrValidation(err.Error())
	}
	return date, nil
}

// storeErr converts a repository failure at the service boundary.
func storeErr(op string, err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return domain.ErrConflict(op + ": already exists")
	}
	return domain.ErrUnavailable(op, err)
}
