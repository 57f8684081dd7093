package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationParams(t *testing.T) {
	p := NewPaginationParams(3, 10)
	assert.Equal(t, PaginationParams{Page: 3, PageSize: 10, Offset: 20}, p)

	p = NewPaginationParams(0, 500)
	assert.Equal(t, PaginationParams{Page: 1, PageSize: DefaultPageSize, Offset: 0}, p)
}

func TestWindow(t *testing.T) {
	start, end := Window(5, 2, 2)
	assert.Equal(t, 2, start)
	assert.Equal(t, 4, end)

	start, end = Window(5, 4, 10)
	assert.Equal(t, 4, start)
	assert.Equal(t, 5, end)

	start, end = Window(5, 9, 10)
	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end)
}
