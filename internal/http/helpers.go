package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/view"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a size-capped JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// parseViewOptions maps query parameters onto pipeline options. Anything
// missing or malformed falls back to the defaults.
func (s *Server) parseViewOptions(r *http.Request) view.Options {
	q := r.URL.Query()

	opts := view.Options{
		Category: view.AllCategories,
		Sort:     view.SortDesc,
		PageSize: s.defaultPageSize,
		Pages:    1,
	}

	if v := strings.TrimSpace(q.Get("category")); v != "" {
		opts.Category = v
	}
	if strings.EqualFold(strings.TrimSpace(q.Get("sort")), string(view.SortAsc)) {
		opts.Sort = view.SortAsc
	}
	if v := strings.TrimSpace(q.Get("page_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.PageSize = n
		}
	}
	if v := strings.TrimSpace(q.Get("pages")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Pages = n
		}
	}

	return opts
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func viewCacheKey(version uint64, o view.Options) string {
	return strconv.FormatUint(version, 10) + "|" + o.Category + "|" + string(o.Sort) +
		"|" + strconv.Itoa(o.PageSize) + "|" + strconv.Itoa(o.Pages)
}
