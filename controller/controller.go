// Package controller implements the shared list-screen behavior every console
// page repeats: fetch a paged, filtered collection, gate row actions by the
// actor's role, and refetch after mutations.
package controller

import (
	"context"
	"errors"
	"log"

	"github.com/mylpd15/inventory-console/models"
	"github.com/mylpd15/inventory-console/odata"
	"github.com/mylpd15/inventory-console/session"
)

// Resource is the backend surface of one entity set, bound to the console
// section that governs who may change it.
type Resource[T any] interface {
	Section() models.Section
	Query(ctx context.Context, q odata.Query) (odata.Result[T], error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, item T) error
}

// Notifier receives the transient user-facing messages a page would toast.
type Notifier interface {
	Notify(message string)
}

// LogNotifier writes notifications to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(message string) {
	log.Println(message)
}

// List drives one resource-list screen: pagination, search, status filters,
// capability-gated mutations. Backend failures surface through the Notifier
// as an empty result; they never propagate to the caller.
type List[T any] struct {
	resource Resource[T]
	session  *session.Manager
	notifier Notifier

	pager        Pager
	searchTerm   string
	statusFilter []int

	items   []T
	counted bool
	loading bool
}

// NewList builds a controller. A nil notifier falls back to LogNotifier.
func NewList[T any](resource Resource[T], sess *session.Manager, notifier Notifier, pageSize int) *List[T] {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &List[T]{
		resource: resource,
		session:  sess,
		notifier: notifier,
		pager:    NewPager(pageSize),
	}
}

// Items returns the current page of results.
func (l *List[T]) Items() []T { return l.items }

// Pager exposes the pagination state for rendering.
func (l *List[T]) Pager() *Pager { return &l.pager }

// Loading reports whether a backend call is in flight; the triggering
// control should be disabled while true.
func (l *List[T]) Loading() bool { return l.loading }

// Counted is false when the backend omitted @odata.count and the page count
// is only as accurate as the fetched window.
func (l *List[T]) Counted() bool { return l.counted }

// SearchTerm returns the active search text.
func (l *List[T]) SearchTerm() string { return l.searchTerm }

func (l *List[T]) role() models.UserRole {
	actor := l.session.Current()
	if actor == nil {
		return 0 // fails closed through the capability table
	}
	return actor.UserRole
}

// CanView reports whether the current actor may see this screen at all.
func (l *List[T]) CanView() bool {
	return models.CanAccess(l.role(), l.resource.Section())
}

// CanManage reports whether create/edit/delete controls should render.
// Actors without the capability never see the control rather than seeing it
// and being rejected.
func (l *List[T]) CanManage() bool {
	return models.CanManage(l.role(), l.resource.Section())
}

func (l *List[T]) query() odata.Query {
	return odata.Query{
		SearchTerm:   l.searchTerm,
		StatusFilter: l.statusFilter,
		Page:         l.pager.Page(),
		PageSize:     l.pager.PageSize(),
		Count:        true,
	}
}

// Load fetches the current page. On failure the collection becomes empty and
// the failure is reported through the Notifier.
func (l *List[T]) Load(ctx context.Context) {
	l.loading = true
	defer func() { l.loading = false }()

	res, err := l.resource.Query(ctx, l.query())
	if err != nil {
		l.items = nil
		l.pager.SetTotal(0)
		l.notifier.Notify(errorMessage(err))
		return
	}

	l.items = res.Items
	l.counted = res.Counted
	l.pager.SetTotal(res.TotalCount)
}

// Search replaces the search term, resets to page 1 and requeries the
// backend. Search is applied uniformly server-side.
func (l *List[T]) Search(ctx context.Context, term string) {
	l.searchTerm = term
	l.pager.Reset()
	l.Load(ctx)
}

// FilterStatus replaces the status filter set, resets to page 1 and
// requeries.
func (l *List[T]) FilterStatus(ctx context.Context, statuses []int) {
	l.statusFilter = statuses
	l.pager.Reset()
	l.Load(ctx)
}

// SetPageSize changes the window size (resetting to page 1) and requeries.
func (l *List[T]) SetPageSize(ctx context.Context, size int) {
	l.pager.SetPageSize(size)
	l.Load(ctx)
}

// GoToPage moves to the given page (clamped) and requeries.
func (l *List[T]) GoToPage(ctx context.Context, page int) {
	l.pager.SetPage(page)
	l.Load(ctx)
}

// Create persists a new record and refetches the current page. Returns false
// when the actor lacks the capability or the backend rejected the record.
func (l *List[T]) Create(ctx context.Context, item T) bool {
	if !l.CanManage() {
		return false
	}
	if _, err := l.resource.Create(ctx, item); err != nil {
		l.notifier.Notify(errorMessage(err))
		return false
	}
	l.Load(ctx)
	return true
}

// Update persists changes to an existing record and refetches.
func (l *List[T]) Update(ctx context.Context, item T) bool {
	if !l.CanManage() {
		return false
	}
	if _, err := l.resource.Update(ctx, item); err != nil {
		l.notifier.Notify(errorMessage(err))
		return false
	}
	l.Load(ctx)
	return true
}

// Delete removes the record, then refetches. The refetch re-clamps the page,
// so deleting the only row of the last page lands on the new last page
// instead of an empty one.
func (l *List[T]) Delete(ctx context.Context, item T) bool {
	if !l.CanManage() {
		return false
	}
	if err := l.resource.Delete(ctx, item); err != nil {
		l.notifier.Notify(errorMessage(err))
		return false
	}
	before := l.pager.Page()
	l.Load(ctx)
	// The refetch re-clamps against the new total; if the deletion emptied
	// the last page, fetch the page we were clamped back to.
	if l.pager.Page() != before {
		l.Load(ctx)
	}
	return true
}

func errorMessage(err error) string {
	var apiErr *odata.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	if errors.Is(err, odata.ErrUnauthorized) {
		return "Your session has expired. Please log in again."
	}
	return "An unexpected error occurred. Please try again."
}
