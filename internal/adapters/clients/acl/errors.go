// Package acl is the anti-corruption layer between the identity service and
// the engine. Resource translators live in subpackages (acl/user); the
// mapping from identity responses to domain errors lives here.
package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Aidzix/Monday/internal/domain"
)

const maxErrorBodySize = 1 << 20

// problemDetail is the RFC 9457 body the identity service sends with errors.
type problemDetail struct {
	Detail string `json:"detail"`
	Errors []struct {
		Location string `json:"location"`
		Message  string `json:"message"`
	} `json:"errors"`
}

// StatusError is a non-success identity response. It unwraps to the domain
// sentinel the status maps to, if any.
type StatusError struct {
	Status int
	Detail string
	kind   error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("identity service returned %d: %s", e.Status, e.Detail)
}

func (e *StatusError) Unwrap() error { return e.kind }

// TranslateHTTPError maps an identity response to a domain error:
//
//	404       domain.ErrNotFound (unknown user)
//	400, 422  domain.ErrValidation, as *domain.ValidationError when fields are listed
//	401, 403  domain.ErrUnavailable (the engine's own credentials were refused)
//	429       domain.ErrBusy
//	5xx       domain.ErrUnavailable
//
// Other statuses yield a *StatusError matching no sentinel.
func TranslateHTTPError(resp *http.Response) error {
	pd := readProblem(resp)
	detail := pd.Detail
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	statusErr := &StatusError{Status: resp.StatusCode, Detail: detail}
	switch code := resp.StatusCode; {
	case code == http.StatusNotFound:
		statusErr.kind = domain.ErrNotFound
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		if len(pd.Errors) > 0 {
			fields := make(map[string]string, len(pd.Errors))
			for _, e := range pd.Errors {
				fields[strings.TrimPrefix(e.Location, "body.")] = e.Message
			}
			return errors.Join(statusErr, &domain.ValidationError{Fields: fields})
		}
		statusErr.kind = domain.ErrValidation
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		statusErr.kind = domain.ErrUnavailable
	case code == http.StatusTooManyRequests:
		statusErr.kind = domain.ErrBusy
	case code >= http.StatusInternalServerError:
		statusErr.kind = domain.ErrUnavailable
	}
	return statusErr
}

// readProblem decodes an application/problem+json body. Anything else, or a
// body that fails to decode, gives the zero value.
func readProblem(resp *http.Response) problemDetail {
	var pd problemDetail
	if resp.Body == nil || !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/problem+json") {
		return pd
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return pd
	}
	if err := json.Unmarshal(body, &pd); err != nil {
		return problemDetail{}
	}
	return pd
}
