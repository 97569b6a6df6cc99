package paging

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID int `json:"id"`
}

func TestNormalizeLengthAware(t *testing.T) {
	content := `{
		"current_page": 2,
		"data": [{"id": 11}, {"id": 12}],
		"from": 11,
		"last_page": 3,
		"per_page": 10,
		"to": 12,
		"total": 22
	}`

	r, err := Normalize[item](json.RawMessage(content))
	require.NoError(t, err)

	assert.Equal(t, 2, r.CurrentPage)
	assert.Equal(t, 3, r.TotalPages)
	assert.Equal(t, 22, r.TotalItems)
	assert.Equal(t, 10, r.PageSize)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrevious)
	assert.Equal(t, 11, r.From)
	assert.Equal(t, 12, r.To)
}

func TestNormalizeDerivesLastPage(t *testing.T) {
	content := `{"current_page": 1, "data": [{"id": 1}], "per_page": "10", "total": 25}`

	r, err := Normalize[item](json.RawMessage(content))
	require.NoError(t, err)

	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.False(t, r.HasPrevious)
}

func TestNormalizeSimplePaginator(t *testing.T) {
	content := `{
		"current_page": 1,
		"data": [{"id": 1}, {"id": 2}],
		"from": 1,
		"next_page_url": "https://api.example.com/api/v1/products?page=2",
		"per_page": 2,
		"prev_page_url": null,
		"to": 2
	}`

	r, err := Normalize[item](json.RawMessage(content))
	require.NoError(t, err)

	assert.True(t, r.HasNext, "next_page_url is set")
	assert.False(t, r.HasPrevious, "prev_page_url is null")
	assert.Equal(t, 2, r.TotalItems, "total falls back to 'to'")
	assert.GreaterOrEqual(t, r.TotalPages, 2)
}

func TestNormalizeEmptyCollection(t *testing.T) {
	content := `{"current_page": 1, "data": [], "per_page": 10, "total": 0, "last_page": 1, "next_page_url": null, "prev_page_url": null}`

	r, err := Normalize[item](json.RawMessage(content))
	require.NoError(t, err)

	assert.NotNil(t, r.Items)
	assert.Empty(t, r.Items)
	assert.Zero(t, r.TotalItems)
	assert.Zero(t, r.TotalPages)
	assert.True(t, r.Empty())
}

func TestNormalizeOutOfRangePage(t *testing.T) {
	content := `{"current_page": 9, "data": [], "per_page": 10, "total": 15, "last_page": 2}`

	r, err := Normalize[item](json.RawMessage(content))
	require.NoError(t, err)

	assert.Equal(t, 9, r.RequestedPage)
	assert.Equal(t, 2, r.CurrentPage, "reported page is clamped")
	assert.Empty(t, r.Items)
}

func TestNormalizeBareArray(t *testing.T) {
	r, err := Normalize[item](json.RawMessage(`[{"id": 1}, {"id": 2}, {"id": 3}]`))
	require.NoError(t, err)

	assert.Equal(t, 3, r.TotalItems)
	assert.Equal(t, 1, r.TotalPages)
	assert.False(t, r.HasNext)
}

func TestNormalizeRejectsMissingData(t *testing.T) {
	_, err := Normalize[item](json.RawMessage(`{"total": 1}`))
	assert.Error(t, err)
}

func TestParamsValues(t *testing.T) {
	v, err := Params{Page: 2, PerPage: 10, Filters: map[string]string{"status": "pending", "q": ""}}.Values()
	require.NoError(t, err)
	assert.Equal(t, "page=2&per_page=10&status=pending", v.Encode())
}
