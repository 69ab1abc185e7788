package app

// PageInfo reports pre-pagination totals alongside a page slice.
type PageInfo struct {
	TotalItems  int
	TotalPages  int
	CurrentPage int
}

// Paginate slices items into the requested page window. An
// out-of-range start yields an empty slice, never an error. Totals
// always describe the full input set.
func Paginate[T any](items []T, page, limit int) ([]T, PageInfo) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	info := PageInfo{
		TotalItems:  len(items),
		TotalPages:  (len(items) + limit - 1) / limit,
		CurrentPage: page,
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}, info
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], info
}
