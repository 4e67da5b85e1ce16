package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Aidzix/Monday/internal/adapters/http/dto"
	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/access"
	"github.com/Aidzix/Monday/internal/platform/auth"
	"github.com/Aidzix/Monday/internal/ports"
)

// requireActor returns the authenticated actor. When the request carries
// none it writes a 401 and returns false.
func requireActor(w http.ResponseWriter, r *http.Request) (access.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		dto.WriteErrorResponse(w, r, fmt.Errorf("%w: no authenticated actor", domain.ErrUnauthenticated))
		return access.Actor{}, false
	}
	return actor, true
}

// mutationOptions turns an If-Match header into an expected-version option.
// The header holds the board version as an entity tag, e.g. "7" or W/"7".
// On a malformed header it writes a 400 and returns false.
func mutationOptions(w http.ResponseWriter, r *http.Request) ([]ports.MutationOption, bool) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return nil, true
	}
	tag := strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	v, err := strconv.ParseInt(tag, 10, 64)
	if err != nil || v < 1 {
		dto.WriteErrorResponse(w, r, &domain.ValidationError{
			Fields: map[string]string{"If-Match": "must be a board version"},
		})
		return nil, false
	}
	return []ports.MutationOption{ports.IfVersion(v)}, true
}

// setVersion exposes the board version as the response's entity tag so
// clients can send it back in If-Match.
func setVersion(w http.ResponseWriter, version int64) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(version, 10)))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

// maxJSONBodyBytes is the maximum allowed size for a JSON request body (1 MB).
const maxJSONBodyBytes = 1 << 20

// decodeJSONBody decodes the request body as JSON into dst. The body is
// limited to maxJSONBodyBytes to prevent resource exhaustion. On failure,
// it writes a 400 error response and returns false.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		dto.WriteErrorResponse(w, r, &domain.ValidationError{
			Fields: map[string]string{"body": "invalid JSON"},
		})
		return false
	}
	return true
}

// validatable is implemented by request DTOs that support validation.
type validatable interface {
	Validate() error
}

// decodeAndValidate decodes the JSON request body into dst and validates it.
// On decode or validation failure it writes an error response and returns false.
func decodeAndValidate[T validatable](w http.ResponseWriter, r *http.Request, dst T) bool {
	if !decodeJSONBody(w, r, dst) {
		return false
	}
	if err := dst.Validate(); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return false
	}
	return true
}

// writeCommitted writes a mutated entity together with its board version.
func writeCommitted[T, R any](w http.ResponseWriter, status int, c *ports.Committed[T], conv func(T) R) {
	setVersion(w, c.Version)
	writeJSON(w, status, dto.ToCommittedResponse(c, conv))
}

// writeAck writes the version a deletion produced.
func writeAck(w http.ResponseWriter, a *ports.Ack) {
	setVersion(w, a.Version)
	writeJSON(w, http.StatusOK, dto.ToAckResponse(a))
}
