package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("item-%d", i)
	}
	return out
}

func TestPaginate(t *testing.T) {
	t.Run("twelve items, page two, limit five", func(t *testing.T) {
		page, info := Paginate(numbered(12), 2, 5)
		assert.Equal(t, []string{"item-5", "item-6", "item-7", "item-8", "item-9"}, page)
		assert.Equal(t, 12, info.TotalItems)
		assert.Equal(t, 3, info.TotalPages)
		assert.Equal(t, 2, info.CurrentPage)
	})

	t.Run("last partial page", func(t *testing.T) {
		page, info := Paginate(numbered(12), 3, 5)
		assert.Len(t, page, 2)
		assert.Equal(t, 3, info.TotalPages)
	})

	t.Run("out of range yields empty slice, not an error", func(t *testing.T) {
		page, info := Paginate(numbered(12), 9, 5)
		assert.Empty(t, page)
		assert.Equal(t, 12, info.TotalItems)
	})

	t.Run("totals hold for every limit", func(t *testing.T) {
		for limit := 1; limit <= 15; limit++ {
			_, info := Paginate(numbered(12), 1, limit)
			want := (12 + limit - 1) / limit
			assert.Equal(t, want, info.TotalPages, "limit %d", limit)
		}
	})

	t.Run("idempotent across repeated calls", func(t *testing.T) {
		items := numbered(7)
		first, infoA := Paginate(items, 2, 3)
		second, infoB := Paginate(items, 2, 3)
		assert.Equal(t, first, second)
		assert.Equal(t, infoA, infoB)
	})

	t.Run("empty input", func(t *testing.T) {
		page, info := Paginate([]string{}, 1, 10)
		assert.Empty(t, page)
		assert.Equal(t, 0, info.TotalItems)
		assert.Equal(t, 0, info.TotalPages)
	})
}
