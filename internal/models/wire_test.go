package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`"1"`, true},
		{`"0"`, false},
		{`null`, false},
	}

	for _, tt := range tests {
		var f Flag
		require.NoError(t, json.Unmarshal([]byte(tt.in), &f), tt.in)
		assert.Equal(t, tt.want, bool(f), tt.in)
	}

	var f Flag
	assert.Error(t, json.Unmarshal([]byte(`"yes please"`), &f))
}

func TestStringListUnmarshal(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"images":"https://cdn.example.com/a.png"}`), &p))
	assert.Equal(t, StringList{"https://cdn.example.com/a.png"}, p.Images)

	require.NoError(t, json.Unmarshal([]byte(`{"images":["a","b"]}`), &p))
	assert.Len(t, p.Images, 2)
}

func TestProductPayloadBodySendsFirstImage(t *testing.T) {
	p := ProductPayload{
		Name:        "Kabel LAN",
		Price:       15000,
		SellerID:    3,
		CategoryID:  2,
		Stock:       10,
		Description: "Kabel LAN cat6 5 meter",
		Images:      []string{"https://cdn.example.com/1.png", "https://cdn.example.com/2.png"},
	}

	raw, err := json.Marshal(p.Body())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "https://cdn.example.com/1.png", got["images"])
	assert.Equal(t, float64(3), got["seller_id"])
}

func TestMajorCarriesCategories(t *testing.T) {
	var m Major
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"name":"Teknik Komputer","categories":[{"id":5,"name":"Jaringan","slug":"jaringan"}]}`), &m))
	require.Len(t, m.Categories, 1)
	assert.Equal(t, "jaringan", m.Categories[0].Slug)
}

func TestMajorKey(t *testing.T) {
	assert.Equal(t, "Teknik Komputer", MajorKey(Major{Name: "Teknik Komputer"}))
	assert.Equal(t, "teknik-komputer", MajorKey(Major{Name: "Teknik Komputer", Slug: "teknik-komputer"}))
}

func TestRoleIn(t *testing.T) {
	assert.True(t, RoleSeller.In([]Role{RoleAdmin, RoleSeller}))
	assert.False(t, RoleBuyer.In([]Role{RoleAdmin}))
}
