package dto

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/Aidzix/Monday/internal/domain"
)

// busyRetryAfter is the Retry-After hint, in seconds, sent with 503 responses
// for boards whose lock could not be taken in time.
const busyRetryAfter = 1

// statusClientClosedRequest reports a request abandoned by its caller. It has
// no net/http constant; 499 follows the nginx convention.
const statusClientClosedRequest = 499

// ErrorResponse represents an RFC 9457 Problem Details response. Code is a
// stable machine-readable name for the failure class.
type ErrorResponse struct {
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	Status   int           `json:"status"`
	Code     string        `json:"code,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Instance string        `json:"instance,omitempty"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
}

// ErrorDetail represents a single field-level validation error within
// an ErrorResponse.
type ErrorDetail struct {
	Location string `json:"location"`
	Message  string `json:"message"`
	Value    any    `json:"value,omitempty"`
}

// NewErrorResponse creates an RFC 9457 ErrorResponse from a domain error.
// The request is used to populate the instance field with the request URI.
// Details of unclassified errors are not exposed.
func NewErrorResponse(r *http.Request, err error) ErrorResponse {
	status, code := classify(err)

	resp := ErrorResponse{
		Type:     "about:blank",
		Title:    statusText(status),
		Status:   status,
		Code:     code,
		Detail:   err.Error(),
		Instance: r.RequestURI,
	}
	if status == http.StatusInternalServerError {
		resp.Detail = "internal server error"
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = validationFieldsToDetails(verr.Fields)
	}
	var rerr *domain.ReorderError
	if errors.As(err, &rerr) {
		resp.Errors = reorderToDetails(rerr)
	}

	return resp
}

// WriteErrorResponse writes an RFC 9457 error response for the given domain
// error. It sets the Content-Type to application/problem+json, writes the
// appropriate HTTP status code, and marshals the error body as JSON. Busy
// responses carry a Retry-After header.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	resp := NewErrorResponse(r, err)
	writeProblem(w, r, resp)
}

// WriteStatusResponse writes a Problem Details body for a failure that has no
// domain error behind it, such as a request timeout.
func WriteStatusResponse(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblem(w, r, ErrorResponse{
		Type:     "about:blank",
		Title:    statusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.RequestURI,
	})
}

func writeProblem(w http.ResponseWriter, r *http.Request, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/problem+json")
	if resp.Status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(busyRetryAfter))
	}
	w.WriteHeader(resp.Status)

	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		slog.ErrorContext(r.Context(), "failed to encode error response",
			slog.Any("error", encErr),
		)
	}
}

// classify maps domain sentinel errors to an HTTP status and error code.
// Concealed boards match ErrNotFound before ErrUnauthorized is considered, so
// hidden and missing boards are indistinguishable.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrInvalidReorder):
		return http.StatusUnprocessableEntity, "invalid_reorder"
	case errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusUnprocessableEntity, "invalid_operation"
	case errors.Is(err, domain.ErrDuplicateID):
		return http.StatusUnprocessableEntity, "duplicate_id"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, "version_conflict"
	case errors.Is(err, domain.ErrBusy):
		return http.StatusServiceUnavailable, "busy"
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusBadGateway, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "canceled"
	default:
		return http.StatusInternalServerError, ""
	}
}

func statusText(status int) string {
	if status == statusClientClosedRequest {
		return "Client Closed Request"
	}
	return http.StatusText(status)
}

// validationFieldsToDetails converts domain validation fields to sorted
// ErrorDetail entries.
func validationFieldsToDetails(fields map[string]string) []ErrorDetail {
	details := make([]ErrorDetail, 0, len(fields))
	for field, msg := range fields {
		details = append(details, ErrorDetail{
			Location: "body." + field,
			Message:  msg,
		})
	}
	sort.Slice(details, func(i, j int) bool {
		return details[i].Location < details[j].Location
	})
	return details
}

func reorderToDetails(e *domain.ReorderError) []ErrorDetail {
	var details []ErrorDetail
	if len(e.Missing) > 0 {
		details = append(details, ErrorDetail{Location: "body.order", Message: "missing ids", Value: e.Missing})
	}
	if len(e.Unexpected) > 0 {
		details = append(details, ErrorDetail{Location: "body.order", Message: "unexpected ids", Value: e.Unexpected})
	}
	return details
}
