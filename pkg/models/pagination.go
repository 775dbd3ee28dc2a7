package models

// PaginationInfo représente les informations de pagination
type PaginationInfo struct {
	Page         int  `json:"page"`
	PageSize     int  `json:"page_size"`
	TotalPages   int  `json:"total_pages"`
	TotalItems   int  `json:"total_items"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
	NextPage     int  `json:"next_page,omitempty"`
	PreviousPage int  `json:"previous_page,omitempty"`
}

// NewPaginationInfo calcule les informations de pagination à partir du total
func NewPaginationInfo(page, pageSize, totalItems int) PaginationInfo {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	totalPages := (totalItems + pageSize - 1) / pageSize
	info := PaginationInfo{
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
	if info.HasNext {
		info.NextPage = page + 1
	}
	if info.HasPrevious {
		info.PreviousPage = page - 1
	}
	return info
}

// Offset retourne le décalage SQL correspondant à la page
func (p PaginationInfo) Offset() int {
	return (p.Page - 1) * p.PageSize
}
