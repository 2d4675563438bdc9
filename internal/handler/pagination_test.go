package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse([]string{"a", "b"}, 11, 2, 5)

	assert.Equal(t, []string{"a", "b"}, resp.Data)
	assert.Equal(t, int64(11), resp.Meta.TotalItems)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 2, resp.Meta.CurrentPage)
	assert.Equal(t, 5, resp.Meta.PageSize)
}

func TestNewPaginatedResponseEmpty(t *testing.T) {
	resp := NewPaginatedResponse([]int(nil), 0, 1, 10)

	assert.Zero(t, resp.Meta.TotalItems)
	assert.Zero(t, resp.Meta.TotalPages)
	assert.Equal(t, 1, resp.Meta.CurrentPage)
}

func TestNewPaginatedResponseGuardsZeroLimit(t *testing.T) {
	resp := NewPaginatedResponse([]int{1}, 3, 1, 0)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
