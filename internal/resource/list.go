package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/paging"
)

const (
	DefaultPerPage = 10
	NoResults      = "No results"
	maxFetchPages  = 100
)

var (
	// ErrStale marks a response that arrived after a newer fetch started or
	// after the list was closed. It was discarded.
	ErrStale  = errors.New("stale response discarded")
	ErrClosed = errors.New("list closed")
)

// FetchPage retrieves one normalized page of path.
func FetchPage[T any](ctx context.Context, client Doer, path string, params paging.Params) (*paging.Result[T], error) {
	var content json.RawMessage
	if err := client.Do(ctx, http.MethodGet, path, params, nil, &content); err != nil {
		return nil, err
	}
	r, err := paging.Normalize[T](content)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, err, "unexpected response from server")
	}
	if params.Page > 0 && r.Empty() {
		r.RequestedPage = params.Page
	}
	return r, nil
}

// FetchAll walks every page of path. It backs reference dropdowns such as
// the category or seller pickers.
func FetchAll[T any](ctx context.Context, client Doer, path string, filters map[string]string) ([]T, error) {
	var all []T
	for page := 1; page <= maxFetchPages; page++ {
		r, err := FetchPage[T](ctx, client, path, paging.Params{Page: page, Filters: filters})
		if err != nil {
			return nil, fmt.Errorf("fetch %s page %d: %w", path, page, err)
		}
		all = append(all, r.Items...)
		if !r.HasNext || r.Empty() {
			return all, nil
		}
	}
	return all, nil
}

// View is what a list screen displays.
type View[T any] struct {
	Page    *paging.Result[T] `json:"page"`
	Filters map[string]string `json:"filters,omitempty"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message,omitempty"`
}

// List is the state behind one browse screen. Only the latest fetch may
// change what is displayed.
type List[T any] struct {
	def     Definition[T]
	client  Doer
	logger  zerolog.Logger
	perPage int

	mu          sync.Mutex
	page        int
	filters     map[string]string
	shown       *paging.Result[T]
	errMsg      string
	gen         uint64
	closed      bool
	unsubscribe func()
}

type ListOption func(*listOptions)

type listOptions struct {
	page    int
	perPage int
	filters map[string]string
	bus     *Bus
}

func WithPerPage(n int) ListOption {
	return func(o *listOptions) {
		if n > 0 {
			o.perPage = n
		}
	}
}

// WithPage sets the page Refresh loads before anything was fetched.
func WithPage(n int) ListOption {
	return func(o *listOptions) {
		if n > 0 {
			o.page = n
		}
	}
}

func WithFilters(filters map[string]string) ListOption {
	return func(o *listOptions) {
		o.filters = maps.Clone(filters)
	}
}

// WithBus refreshes the list whenever a mutation of its resource succeeds.
func WithBus(bus *Bus) ListOption {
	return func(o *listOptions) {
		o.bus = bus
	}
}

func NewList[T any](client Doer, def Definition[T], logger zerolog.Logger, opts ...ListOption) *List[T] {
	o := listOptions{page: 1, perPage: DefaultPerPage}
	for _, opt := range opts {
		opt(&o)
	}
	if o.filters == nil {
		o.filters = map[string]string{}
	}

	l := &List[T]{
		def:     def,
		client:  client,
		logger:  logger.With().Str("resource", def.Name).Logger(),
		perPage: o.perPage,
		page:    o.page,
		filters: o.filters,
	}
	if o.bus != nil {
		l.unsubscribe = o.bus.Subscribe(def.Name, func(ctx context.Context, e Event) {
			if _, err := l.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) && !errors.Is(err, ErrClosed) {
				l.logger.Error().Err(err).Str("action", string(e.Action)).Msg("Refresh after mutation failed")
			}
		})
	}
	return l
}

// FetchPage loads page (1-based, passed through unclamped) and displays it.
// A failed fetch degrades the display to an empty page with the error text.
func (l *List[T]) FetchPage(ctx context.Context, page int) (*paging.Result[T], error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	l.gen++
	gen := l.gen
	params := paging.Params{Page: page, PerPage: l.perPage, Filters: maps.Clone(l.filters)}
	l.mu.Unlock()

	res, err := FetchPage[T](ctx, l.client, l.def.Path, params)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || gen != l.gen {
		l.logger.Debug().Int("page", page).Msg("Discarding stale page")
		return nil, ErrStale
	}

	l.page = page
	if err != nil {
		l.shown = paging.Empty[T](page)
		l.errMsg = apperr.Message(err)
		l.logger.Error().Err(err).Int("page", page).Msg("Failed to fetch page")
		return nil, err
	}
	l.shown = res
	l.errMsg = ""
	return res, nil
}

// Refresh reloads the current page.
func (l *List[T]) Refresh(ctx context.Context) (*paging.Result[T], error) {
	l.mu.Lock()
	page := l.page
	l.mu.Unlock()
	return l.FetchPage(ctx, page)
}

// SetFilter changes one filter and restarts from page 1. An empty value
// removes the filter.
func (l *List[T]) SetFilter(ctx context.Context, key, value string) (*paging.Result[T], error) {
	l.mu.Lock()
	if value == "" {
		delete(l.filters, key)
	} else {
		l.filters[key] = value
	}
	l.mu.Unlock()
	return l.FetchPage(ctx, 1)
}

func (l *List[T]) NextPage(ctx context.Context) (*paging.Result[T], error) {
	l.mu.Lock()
	shown, page := l.shown, l.page
	l.mu.Unlock()
	if shown != nil && !shown.HasNext {
		return shown, nil
	}
	return l.FetchPage(ctx, page+1)
}

func (l *List[T]) PreviousPage(ctx context.Context) (*paging.Result[T], error) {
	l.mu.Lock()
	shown, page := l.shown, l.page
	l.mu.Unlock()
	if page > 1 {
		return l.FetchPage(ctx, page-1)
	}
	if shown != nil {
		return shown, nil
	}
	return l.FetchPage(ctx, 1)
}

func (l *List[T]) Snapshot() View[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	page := l.shown
	if page == nil {
		page = paging.Empty[T](l.page)
	}
	v := View[T]{Page: page, Filters: maps.Clone(l.filters), Error: l.errMsg}
	if page.Empty() {
		v.Message = NoResults
	}
	return v
}

// Close detaches the list. Responses still in flight are dropped.
func (l *List[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if l.unsubscribe != nil {
		l.unsubscribe()
	}
}
