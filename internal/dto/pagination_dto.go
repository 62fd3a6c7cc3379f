package dto

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type PageQuery struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

// Normalize clamps page to >= 1 and limit to [1, MaxPageLimit].
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func NewPagination(q PageQuery, total int64) Pagination {
	totalPages := 0
	if q.Limit > 0 {
		totalPages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	return Pagination{Page: q.Page, Limit: q.Limit, Total: total, TotalPages: totalPages}
}

type PaginatedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func NewPaginatedResponse[T any](data []T, q PageQuery, total int64) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{Data: data, Pagination: NewPagination(q, total)}
}

type CountResponse struct {
	Count int64 `json:"count"`
}
