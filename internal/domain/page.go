package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Pagination errors
var (
	ErrInvalidPageablePair   = errors.New("page attributes mismatch: expected both 'page' and 'size', or none of them")
	ErrInvalidOrderDirection = errors.New("ordering sort direction is invalid")
	ErrInvalidSortDirective  = errors.New("invalid sort directive")
)

// Default and maximum page sizes.
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// SortDirection is the ordering of a sort directive.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Sort is one ordering directive.
type Sort struct {
	Field     string
	Direction SortDirection
}

// Pageable describes a page request. Size 0 means unpaged.
type Pageable struct {
	Page int
	Size int
	Sort []Sort
}

// Limit returns the SQL limit for the request.
func (p Pageable) Limit() int {
	if p.Size <= 0 {
		return MaxPageSize
	}
	return min(p.Size, MaxPageSize)
}

// Offset returns the SQL offset for the request.
func (p Pageable) Offset() int {
	if p.Size <= 0 || p.Page <= 0 {
		return 0
	}
	return p.Page * p.Size
}

// ParsePageable builds a Pageable from raw query values. page and size must
// be given together. Each sort entry has the form "field" or "field,dir";
// field must appear in allowed, which maps API names to column names.
func ParsePageable(page, size string, sorts []string, allowed map[string]string) (Pageable, error) {
	var p Pageable

	if (page == "") != (size == "") {
		return p, ErrInvalidPageablePair
	}

	if page != "" {
		var err error
		if p.Page, err = strconv.Atoi(page); err != nil || p.Page < 0 {
			return Pageable{}, fmt.Errorf("%w: invalid page %q", ErrInvalidPageablePair, page)
		}
		if p.Size, err = strconv.Atoi(size); err != nil || p.Size <= 0 {
			return Pageable{}, fmt.Errorf("%w: invalid size %q", ErrInvalidPageablePair, size)
		}
	}

	for _, raw := range sorts {
		parts := strings.Split(raw, ",")
		field := strings.TrimSpace(parts[0])
		column, ok := allowed[field]
		if !ok || len(parts) > 2 {
			return p, fmt.Errorf("%w: %s", ErrInvalidSortDirective, raw)
		}

		direction := SortAsc
		if len(parts) == 2 {
			switch SortDirection(strings.ToUpper(strings.TrimSpace(parts[1]))) {
			case SortAsc:
				direction = SortAsc
			case SortDesc:
				direction = SortDesc
			default:
				return p, fmt.Errorf("%w: received '%s'", ErrInvalidOrderDirection, parts[1])
			}
		}

		p.Sort = append(p.Sort, Sort{Field: column, Direction: direction})
	}

	return p, nil
}

// IsPaginationError reports whether err came from ParsePageable.
func IsPaginationError(err error) bool {
	return errors.Is(err, ErrInvalidPageablePair) ||
		errors.Is(err, ErrInvalidOrderDirection) ||
		errors.Is(err, ErrInvalidSortDirective)
}

// Page is one page of results.
type Page[T any] struct {
	Details PageDetails `json:"details"`
	Content []T         `json:"content"`
}

// PageDetails describes the position of a page in the full result.
type PageDetails struct {
	TotalPages      int   `json:"total_pages"`
	PageIndex       int   `json:"page_index"`
	TotalElements   int64 `json:"total_elements"`
	ElementsPerPage int   `json:"elements_per_page"`
	ElementsInPage  int   `json:"elements_in_page"`
	IsFirst         bool  `json:"is_first"`
	IsLast          bool  `json:"is_last"`
	HasNext         bool  `json:"has_next"`
	HasPrevious     bool  `json:"has_previous"`
}

// NewPage builds a page from content and the total number of elements.
func NewPage[T any](content []T, total int64, p Pageable) Page[T] {
	if content == nil {
		content = []T{}
	}

	perPage := p.Size
	if perPage <= 0 {
		perPage = int(total)
	}

	totalPages := 1
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	if totalPages == 0 {
		totalPages = 1
	}

	index := p.Page
	if p.Size <= 0 {
		index = 0
	}

	return Page[T]{
		Details: PageDetails{
			TotalPages:      totalPages,
			PageIndex:       index,
			TotalElements:   total,
			ElementsPerPage: perPage,
			ElementsInPage:  len(content),
			IsFirst:         index == 0,
			IsLast:          index >= totalPages-1,
			HasNext:         index < totalPages-1,
			HasPrevious:     index > 0,
		},
		Content: content,
	}
}

// MapPage converts a page's content.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Content))
	for i, v := range p.Content {
		out[i] = fn(v)
	}
	return Page[U]{Details: p.Details, Content: out}
}
