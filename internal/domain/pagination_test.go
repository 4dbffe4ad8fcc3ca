package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationParams_Offset(t *testing.T) {
	assert.Equal(t, 0, PaginationParams{Page: 1, PageSize: 10}.Offset())
	assert.Equal(t, 20, PaginationParams{Page: 3, PageSize: 10}.Offset())
	assert.Equal(t, 0, PaginationParams{Page: 0, PageSize: 10}.Offset())
	assert.Equal(t, 0, PaginationParams{Page: 4, PageSize: 0}.Offset())
}

func TestPaginationParams_Offset_HugePage(t *testing.T) {
	tests := []PaginationParams{
		{Page: 92233720368547760, PageSize: 100},
		{Page: math.MaxInt, PageSize: 2},
		{Page: math.MaxInt/100 + 2, PageSize: 100},
	}
	for _, p := range tests {
		got := p.Offset()
		assert.GreaterOrEqual(t, got, 0, "page %d", p.Page)
		assert.Equal(t, math.MaxInt, got, "page %d", p.Page)
	}
	assert.Equal(t, (math.MaxInt/100)*100, PaginationParams{Page: math.MaxInt/100 + 1, PageSize: 100}.Offset())
}

func TestPaginationParams_Clamp(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		total    int
		wantPage int
	}{
		{"in range", 2, 25, 2},
		{"past last page falls back to last", 9, 25, 3},
		{"no rows stays on first page", 4, 0, 1},
		{"zero page becomes first", 0, 25, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PaginationParams{Page: tt.page, PageSize: 10}.Clamp(tt.total)
			assert.Equal(t, tt.wantPage, got.Page)
		})
	}
}
