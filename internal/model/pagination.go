package model

// PaginatedResult wraps a page sliced out of an already-loaded result set.
// Slicing in memory is acceptable here because station/date-bounded result
// sets stay small; a high-volume system would push LIMIT/OFFSET into SQL.
type PaginatedResult[T any] struct {
	Items           []T  `json:"items"`
	TotalCount      int  `json:"total_count"`
	PageNumber      int  `json:"page_number"`
	PageSize        int  `json:"page_size"`
	TotalPages      int  `json:"total_pages"`
	HasPreviousPage bool `json:"has_previous_page"`
	HasNextPage     bool `json:"has_next_page"`
}

// Paginate slices the requested page out of source.  The caller is expected
// to have validated pageNumber and pageSize (>= 1).  A page past the end
// yields an empty Items slice, never nil.
func Paginate[T any](source []T, pageNumber, pageSize int) PaginatedResult[T] {
	total := len(source)
	totalPages := (total + pageSize - 1) / pageSize

	start := (pageNumber - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]T, end-start)
	copy(items, source[start:end])

	return PaginatedResult[T]{
		Items:           items,
		TotalCount:      total,
		PageNumber:      pageNumber,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasPreviousPage: pageNumber > 1,
		HasNextPage:     pageNumber < totalPages,
	}
}
