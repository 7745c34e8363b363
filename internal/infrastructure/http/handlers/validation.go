package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. Malformed JSON and
// failed validation are both Validation errors.
func decode(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return check(dst)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domerrors.Validation(nil, "request body is required")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return domerrors.Validation(domerrors.Details{typeErr.Field: "must be " + typeErr.Type.String()}, "invalid request body")
		}
		return domerrors.Validation(nil, "invalid request body")
	}
	return nil
}

// check validates a struct and converts failures to field details.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	details := domerrors.Details{}
	for _, fe := range verrs {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		details[fe.Field()] = msg
	}
	return domerrors.Validation(details, "request validation failed")
}

// SanitizeEmail trims and lowercases email.
func SanitizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domerrors.Validation(domerrors.Details{name: "must be a valid UUID"}, "invalid path parameter")
	}
	return id, nil
}

func parseUUIDField(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, domerrors.Validation(domerrors.Details{field: "must be a valid UUID"}, "request validation failed")
	}
	return id, nil
}

func parseDateField(field, s string) (time.Time, error) {
	d, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, domerrors.Validation(domerrors.Details{field: "must be a date (YYYY-MM-DD)"}, "request validation failed")
	}
	return d, nil
}

// pageParams reads limit and offset. Range clamping is left to the services.
func pageParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			return 0, 0, domerrors.Validation(domerrors.Details{"limit": "must be a non-negative integer"}, "invalid query parameter")
		}
	}
	if s := q.Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil || offset < 0 {
			return 0, 0, domerrors.Validation(domerrors.Details{"offset": "must be a non-negative integer"}, "invalid query parameter")
		}
	}
	return limit, offset, nil
}

// dateRange reads the from and to query parameters. Absent values stay zero.
func dateRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		if from, err = parseDateField("from", s); err != nil {
			return
		}
	}
	if s := q.Get("to"); s != "" {
		to, err = parseDateField("to", s)
	}
	return
}
