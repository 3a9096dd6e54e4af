package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success    bool                      `json:"success"`
	Data       any                       `json:"data,omitempty"`
	Message    string                    `json:"message,omitempty"`
	Pagination *domain.Pagination        `json:"pagination,omitempty"`
	Errors     []*domain.ValidationError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func writePage[T any](w http.ResponseWriter, page *domain.PageResult[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	pagination := page.Pagination
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: items, Pagination: &pagination})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, envelope{
		Success: false,
		Message: publicMessage(err, status),
		Errors:  domain.FieldErrors(err),
	})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: status < http.StatusBadRequest, Message: message})
}

// decodeJSON reads a single JSON document into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	present, err := decodeOptionalJSON(r, dst)
	if err != nil {
		return err
	}
	if !present {
		return domain.NewError(domain.ErrInvalidInput, "decode body", "request body is required")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be omitted, whatever the
// transfer encoding. It reports whether a document was present.
func decodeOptionalJSON(r *http.Request, dst any) (bool, error) {
	if r.Body == nil {
		return false, nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, domain.WrapError(domain.ErrInvalidInput, "decode body", err)
	}
	return true, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

// flexTime accepts either a calendar date (2006-01-02) or an RFC 3339 timestamp.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, err := parseFlexTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t *flexTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

func parseFlexTime(s string) (time.Time, error) {
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC 3339 timestamp, got %q", s)
	}
	return ts, nil
}

// queryReader parses optional query parameters and accumulates field errors.
type queryReader struct {
	values url.Values
	errs   domain.ValidationErrors
}

func newQueryReader(r *http.Request) *queryReader {
	return &queryReader{values: r.URL.Query()}
}

// pick returns the first of keys present in the query, or the first key when none is.
// Later keys are accepted aliases.
func (q *queryReader) pick(keys ...string) string {
	for _, k := range keys {
		if q.values.Has(k) {
			return k
		}
	}
	return keys[0]
}

func (q *queryReader) str(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

func (q *queryReader) integer(key string) int {
	raw := q.str(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.errs.Add(key, "must be an integer")
		return 0
	}
	return n
}

func (q *queryReader) id(key string) *int64 {
	raw := q.str(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		q.errs.Add(key, "must be a positive integer")
		return nil
	}
	return &n
}

func (q *queryReader) boolean(key string) *bool {
	raw := q.str(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.errs.Add(key, "must be true or false")
		return nil
	}
	return &b
}

// date parses a date bound. A calendar-date upper bound covers the whole day.
func (q *queryReader) date(key string, upper bool) *time.Time {
	raw := q.str(key)
	if raw == "" {
		return nil
	}
	if d, err := time.Parse(time.DateOnly, raw); err == nil {
		if upper {
			d = d.Add(24*time.Hour - time.Nanosecond)
		}
		return &d
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		q.errs.Add(key, "must be YYYY-MM-DD or an RFC 3339 timestamp")
		return nil
	}
	return &ts
}

func (q *queryReader) page(defaultLimit, maxLimit int) domain.Page {
	return domain.NewPage(q.integer("page"), q.integer("limit"), defaultLimit, maxLimit)
}

func (q *queryReader) err() error {
	return q.errs.Err()
}
