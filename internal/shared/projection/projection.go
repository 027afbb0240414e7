package projection

import "time"

// Metadata captures persistence timestamps shared by aggregates.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch stamps UpdatedAt and, on first persistence, CreatedAt.
func (m *Metadata) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Page is a slice of aggregates plus the paging window it was read with.
type Page[T any] struct {
	Items []T
	Page  int
	Size  int
	Total int64
}

// TotalPages returns the number of pages of Size needed to hold Total items.
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}
