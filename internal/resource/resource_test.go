package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/models"
	"tbpedia-dashboard/internal/paging"
)

type call struct {
	Method string
	Path   string
	Query  any
	Body   any
}

// fakeAPI is an in-memory Doer. respond builds the content for each call.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []call
	respond func(c call) (string, error)
}

func (f *fakeAPI) Do(ctx context.Context, method, path string, query, body, out any) error {
	c := call{Method: method, Path: path, Query: query, Body: body}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	content, err := f.respond(c)
	if err != nil {
		return err
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = json.RawMessage(content)
	}
	return nil
}

func (f *fakeAPI) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeAPI) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

var categories = Definition[models.Category]{
	Name:       "categories",
	Path:       "/api/v1/categories",
	Addressing: BySlug,
	Key:        func(c models.Category) string { return c.Slug },
}

var orders = Definition[models.Order]{
	Name:       "orders",
	Path:       "/api/v1/orders",
	Addressing: ByID,
	Key:        func(o models.Order) string { return IDKey(o.ID) },
}

func categoryPage(page, lastPage, total int, names ...string) string {
	data := make([]map[string]any, 0, len(names))
	for i, n := range names {
		data = append(data, map[string]any{"id": i + 1, "name": n, "slug": n, "is_hidden": 0})
	}
	raw, _ := json.Marshal(map[string]any{
		"current_page": page,
		"last_page":    lastPage,
		"per_page":     10,
		"total":        total,
		"data":         data,
	})
	return string(raw)
}

func TestListEmptyCollectionShowsNoResults(t *testing.T) {
	api := &fakeAPI{respond: func(call) (string, error) {
		return categoryPage(1, 1, 0), nil
	}}
	l := NewList(api, categories, zerolog.Nop())

	res, err := l.FetchPage(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.False(t, res.HasNext)
	assert.False(t, res.HasPrevious)

	v := l.Snapshot()
	assert.Equal(t, NoResults, v.Message)
	assert.Empty(t, v.Error)
}

func TestListSendsPageAndFilters(t *testing.T) {
	api := &fakeAPI{respond: func(call) (string, error) {
		return categoryPage(2, 3, 25, "Biology"), nil
	}}
	l := NewList(api, categories, zerolog.Nop(), WithPerPage(5), WithFilters(map[string]string{"major_id": "3"}))

	_, err := l.FetchPage(context.Background(), 2)
	require.NoError(t, err)

	p, ok := api.last().Query.(paging.Params)
	require.True(t, ok, "query = %T", api.last().Query)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 5, p.PerPage)
	assert.Equal(t, "3", p.Filters["major_id"])
}

func TestListDiscardsStaleResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{respond: func(c call) (string, error) {
		if c.Query.(paging.Params).Page == 1 {
			close(started)
			<-release
			return categoryPage(1, 2, 12, "Old"), nil
		}
		return categoryPage(2, 2, 12, "New"), nil
	}}
	l := NewList(api, categories, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := l.FetchPage(context.Background(), 1)
		done <- err
	}()
	<-started

	_, err := l.FetchPage(context.Background(), 2)
	require.NoError(t, err)
	close(release)
	assert.ErrorIs(t, <-done, ErrStale)

	v := l.Snapshot()
	assert.Equal(t, 2, v.Page.CurrentPage)
	require.NotEmpty(t, v.Page.Items)
	assert.Equal(t, "New", v.Page.Items[0].Name)
}

func TestListFilterChangeResetsToFirstPage(t *testing.T) {
	api := &fakeAPI{respond: func(c call) (string, error) {
		p := c.Query.(paging.Params)
		return categoryPage(p.Page, 3, 30, "Chemistry"), nil
	}}
	l := NewList(api, categories, zerolog.Nop())
	ctx := context.Background()

	_, err := l.FetchPage(ctx, 3)
	require.NoError(t, err)

	res, err := l.SetFilter(ctx, "status", "pending")
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentPage)

	p := api.last().Query.(paging.Params)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, "pending", p.Filters["status"])
}

func TestListFetchFailureDegradesToEmpty(t *testing.T) {
	api := &fakeAPI{respond: func(call) (string, error) {
		return "", apperr.New(apperr.KindNetwork, "")
	}}
	l := NewList(api, categories, zerolog.Nop())

	_, err := l.FetchPage(context.Background(), 1)
	require.True(t, apperr.Is(err, apperr.KindNetwork), "err = %v", err)

	v := l.Snapshot()
	assert.True(t, v.Page.Empty())
	assert.NotEmpty(t, v.Error)
	assert.Equal(t, NoResults, v.Message)
}

func TestListClosedIgnoresResponses(t *testing.T) {
	api := &fakeAPI{respond: func(call) (string, error) {
		return categoryPage(1, 1, 1, "Physics"), nil
	}}
	l := NewList(api, categories, zerolog.Nop())
	l.Close()

	_, err := l.FetchPage(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestListNavigation(t *testing.T) {
	api := &fakeAPI{respond: func(c call) (string, error) {
		p := c.Query.(paging.Params)
		return categoryPage(p.Page, 2, 15, fmt.Sprintf("page-%d", p.Page)), nil
	}}
	l := NewList(api, categories, zerolog.Nop())
	ctx := context.Background()

	_, err := l.FetchPage(ctx, 1)
	require.NoError(t, err)

	res, err := l.NextPage(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.CurrentPage)

	before := api.callCount(http.MethodGet)
	res, _ = l.NextPage(ctx)
	assert.Equal(t, 2, res.CurrentPage, "NextPage stays on the last page")
	assert.Equal(t, before, api.callCount(http.MethodGet), "no fetch past the last page")

	res, _ = l.PreviousPage(ctx)
	assert.Equal(t, 1, res.CurrentPage)
}

func TestFetchAllWalksPages(t *testing.T) {
	api := &fakeAPI{respond: func(c call) (string, error) {
		p := c.Query.(paging.Params)
		return categoryPage(p.Page, 3, 3, fmt.Sprintf("c%d", p.Page)), nil
	}}

	all, err := FetchAll[models.Category](context.Background(), api, categories.Path, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c3", all[2].Name)
}

type recordingAuditor struct {
	events []Event
	errs   []error
}

func (a *recordingAuditor) RecordMutation(ctx context.Context, e Event, err error) {
	a.events = append(a.events, e)
	a.errs = append(a.errs, err)
}

func TestMutationSuccessRefreshesList(t *testing.T) {
	hidden := false
	api := &fakeAPI{respond: func(c call) (string, error) {
		switch c.Method {
		case http.MethodPatch:
			hidden = true
			return `{}`, nil
		default:
			flag := 0
			if hidden {
				flag = 1
			}
			return fmt.Sprintf(`{"current_page":1,"last_page":1,"total":1,"data":[{"id":1,"name":"Biology","slug":"biology","is_hidden":%d}]}`, flag), nil
		}
	}}
	bus := NewBus()
	auditor := &recordingAuditor{}
	l := NewList(api, categories, zerolog.Nop(), WithBus(bus))
	m := NewMutator(api, categories, bus, zerolog.Nop(), WithAuditor[models.Category](auditor))
	ctx := context.Background()

	_, err := l.FetchPage(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, m.SetHidden(ctx, "biology", true))

	c := api.calls[1]
	assert.Equal(t, http.MethodPatch, c.Method)
	assert.Equal(t, "/api/v1/categories/biology/hide", c.Path)
	assert.Equal(t, 2, api.callCount(http.MethodGet), "list refreshed after the mutation")
	assert.True(t, bool(l.Snapshot().Page.Items[0].IsHidden))

	require.Len(t, auditor.events, 1)
	assert.Equal(t, ActionHide, auditor.events[0].Action)
	assert.NoError(t, auditor.errs[0])
}

func TestMutationFailureLeavesListUntouched(t *testing.T) {
	api := &fakeAPI{respond: func(c call) (string, error) {
		if c.Method == http.MethodPatch {
			return "", &apperr.Error{Kind: apperr.KindUnknown, Status: 500, Message: "Server error"}
		}
		return categoryPage(1, 1, 1, "biology"), nil
	}}
	bus := NewBus()
	l := NewList(api, categories, zerolog.Nop(), WithBus(bus))
	m := NewMutator(api, categories, bus, zerolog.Nop())
	ctx := context.Background()

	_, err := l.FetchPage(ctx, 1)
	require.NoError(t, err)

	err = m.SetHidden(ctx, "biology", true)
	assert.Equal(t, "Server error", apperr.Message(err))
	assert.Equal(t, 1, api.callCount(http.MethodGet), "failed mutation does not refresh")

	v := l.Snapshot()
	assert.False(t, bool(v.Page.Items[0].IsHidden))
	assert.Empty(t, v.Error)
}

func TestSetHiddenIsIdempotent(t *testing.T) {
	api := &fakeAPI{respond: func(call) (string, error) { return `{}`, nil }}
	m := NewMutator(api, categories, nil, zerolog.Nop())
	ctx := context.Background()

	for range 2 {
		require.NoError(t, m.SetHidden(ctx, "biology", true))
	}
	for _, c := range api.calls {
		assert.Equal(t, "/api/v1/categories/biology/hide", c.Path)
	}
}

func TestValidationFailureSendsNothing(t *testing.T) {
	api := &fakeAPI{respond: func(call) (string, error) { return `{}`, nil }}
	auditor := &recordingAuditor{}
	m := NewMutator(api, categories, NewBus(), zerolog.Nop(), WithAuditor[models.Category](auditor))

	err := m.Create(context.Background(), models.CategoryPayload{Name: "Ab", MajorID: 1, Description: "long enough text"})
	require.True(t, apperr.Is(err, apperr.KindValidation), "err = %v", err)
	assert.Equal(t, "name must be at least 4 characters long", apperr.Message(err))
	assert.Empty(t, api.calls)

	require.Len(t, auditor.errs, 1)
	assert.Error(t, auditor.errs[0], "failed attempt is audited")
}

func TestMutatorAddressing(t *testing.T) {
	api := &fakeAPI{respond: func(call) (string, error) { return `{}`, nil }}
	m := NewMutator(api, orders, nil, zerolog.Nop())
	ctx := context.Background()

	assert.True(t, apperr.Is(m.Remove(ctx, "biology"), apperr.KindValidation), "non-numeric id")
	assert.True(t, apperr.Is(m.Remove(ctx, ""), apperr.KindValidation), "empty key")
	require.NoError(t, m.Remove(ctx, "42"))

	c := api.last()
	assert.Equal(t, http.MethodDelete, c.Method)
	assert.Equal(t, "/api/v1/orders/42", c.Path)
}

func TestProductPayloadSendsFirstImage(t *testing.T) {
	api := &fakeAPI{respond: func(call) (string, error) { return `{}`, nil }}
	products := Definition[models.Product]{Name: "products", Path: "/api/v1/products", Key: func(p models.Product) string { return p.Slug }}
	m := NewMutator(api, products, nil, zerolog.Nop())

	payload := models.ProductPayload{
		Name:        "Anatomy Atlas",
		Price:       150000,
		SellerID:    2,
		CategoryID:  3,
		Stock:       4,
		Description: "Full colour anatomy atlas",
		Images:      []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"},
	}
	require.NoError(t, m.Update(context.Background(), "anatomy-atlas", payload))

	raw, err := json.Marshal(api.last().Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "https://cdn.example.com/a.png", body["images"])
	assert.Equal(t, "Anatomy Atlas", body["name"])
}
