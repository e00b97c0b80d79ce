package handlers

import (
	"net/http"
	"strconv"

	"github.com/dreamware/csync/internal/apperr"
	"github.com/dreamware/csync/internal/types"
)

// queryUint64 parses a required base-10 u64 query parameter.
func queryUint64(r *http.Request, name string) (uint64, error) {
	raw := r.URL.Query().Get(name)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("query parameter %q must be a u64: %v", name, err)
	}
	return v, nil
}

// queryUint64Optional parses an optional base-10 u64 query parameter,
// reporting presence via the second return value.
func queryUint64Optional(r *http.Request, name string) (uint64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, apperr.Validation("query parameter %q must be a u64: %v", name, err)
	}
	return v, true, nil
}

// queryBoolOptional parses an optional boolean query parameter ("true"/"false").
func queryBoolOptional(r *http.Request, name string) (bool, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, apperr.Validation("query parameter %q must be a bool: %v", name, err)
	}
	return v, true, nil
}

// parseBaseQuery parses the common offset/limit/search/update_after/update_before
// parameters shared by every list endpoint. limit defaults to DefaultLimit
// when absent, per spec section 6.
func parseBaseQuery(r *http.Request) (types.Query, error) {
	var q types.Query

	if v, ok, err := queryUint64Optional(r, "offset"); err != nil {
		return q, err
	} else if ok {
		q.Offset = v
	}

	if v, ok, err := queryUint64Optional(r, "limit"); err != nil {
		return q, err
	} else if ok {
		q.Limit = v
	} else {
		q.Limit = types.DefaultLimit
	}

	if search := r.URL.Query().Get("search"); search != "" {
		q.Search = search
		q.HasSearch = true
	}

	if v, ok, err := queryUint64Optional(r, "update_after"); err != nil {
		return q, err
	} else if ok {
		q.UpdateAfter = v
		q.HasAfter = true
	}

	if v, ok, err := queryUint64Optional(r, "update_before"); err != nil {
		return q, err
	} else if ok {
		q.UpdateBefore = v
		q.HasBefore = true
	}

	return q, nil
}
