package catalog

// Paginate windows an ordered sequence into one page. Pages are 1-based.
// Out-of-range pages yield an empty slice rather than an error; totalPages
// is ceil(len/pageSize), 0 for empty input.
func Paginate[T any](items []T, pageSize, page int) (pageItems []T, totalPages int) {
	if pageSize <= 0 || len(items) == 0 {
		return nil, 0
	}
	totalPages = (len(items) + pageSize - 1) / pageSize
	if page < 1 || page > totalPages {
		return nil, totalPages
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))
	return items[start:end], totalPages
}
