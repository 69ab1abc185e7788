package app

import "coinfeed/domain"

// PartitionNew splits candidates into articles absent from the store
// and articles already present, by exact link equality. The partition
// is stable: relative candidate order is preserved in both groups.
func PartitionNew(candidates []domain.Article, existing map[string]struct{}) (fresh, duplicate []domain.Article) {
	for _, a := range candidates {
		if _, ok := existing[a.Link]; ok {
			duplicate = append(duplicate, a)
		} else {
			fresh = append(fresh, a)
		}
	}
	return fresh, duplicate
}

// Links collects the candidate links for the batched existence lookup.
func Links(articles []domain.Article) []string {
	links := make([]string, 0, len(articles))
	for _, a := range articles {
		links = append(links, a.Link)
	}
	return links
}
