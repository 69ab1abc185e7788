package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"coinfeed/domain"
)

func articlesWithLinks(links ...string) []domain.Article {
	out := make([]domain.Article, 0, len(links))
	for _, l := range links {
		out = append(out, domain.Article{Link: l})
	}
	return out
}

func TestPartitionNew(t *testing.T) {
	t.Run("splits by exact link equality", func(t *testing.T) {
		candidates := articlesWithLinks("a", "b", "c", "d")
		existing := map[string]struct{}{"b": {}, "d": {}}

		fresh, dupes := PartitionNew(candidates, existing)
		assert.Equal(t, articlesWithLinks("a", "c"), fresh)
		assert.Equal(t, articlesWithLinks("b", "d"), dupes)
	})

	t.Run("all existing yields empty new group in input order", func(t *testing.T) {
		candidates := articlesWithLinks("x", "y", "z")
		existing := map[string]struct{}{"x": {}, "y": {}, "z": {}}

		fresh, dupes := PartitionNew(candidates, existing)
		assert.Empty(t, fresh)
		assert.Equal(t, candidates, dupes)
	})

	t.Run("matching is case-sensitive", func(t *testing.T) {
		fresh, dupes := PartitionNew(articlesWithLinks("https://A"), map[string]struct{}{"https://a": {}})
		assert.Len(t, fresh, 1)
		assert.Empty(t, dupes)
	})
}

func TestLinks(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Links(articlesWithLinks("a", "b")))
	assert.Empty(t, Links(nil))
}
