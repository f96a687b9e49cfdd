package shared

import (
	"net/http"
	"strconv"

	"zenpayroll/internal/domain/validation"
	"zenpayroll/internal/transport/http/api"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset. Malformed values are rejected with
// a 400 envelope; limits above maxLimit are clamped.
func ParsePagination(w http.ResponseWriter, r *http.Request, requestID string, defaultLimit, maxLimit int) (Pagination, bool) {
	v := validation.New()
	page := Pagination{
		Limit:  queryInt(v, r, "limit", defaultLimit, 1),
		Offset: queryInt(v, r, "offset", 0, 0),
	}
	if Reject(w, requestID, v) {
		return Pagination{}, false
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page, true
}

func queryInt(v *validation.Validator, r *http.Request, key string, fallback, floor int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < floor {
		v.Add(key, "must be an integer of at least "+strconv.Itoa(floor))
		return fallback
	}
	return n
}

// Paginate slices an in-memory listing.
func Paginate[T any](items []T, page Pagination) api.Page[T] {
	out := api.Page[T]{Items: []T{}, Total: len(items), Limit: page.Limit, Offset: page.Offset}
	if page.Offset >= len(items) {
		return out
	}
	end := min(page.Offset+page.Limit, len(items))
	out.Items = items[page.Offset:end]
	return out
}
