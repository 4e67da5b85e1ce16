package acl

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Aidzix/Monday/internal/adapters/clients/acl/user"
	domainuser "github.com/Aidzix/Monday/internal/domain/user"
	"github.com/Aidzix/Monday/internal/platform/httpclient"
	"github.com/Aidzix/Monday/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.IdentityClient = (*IdentityClient)(nil)
	_ ports.HealthChecker  = (*IdentityClient)(nil)
)

// IdentityClient is the outbound adapter for the identity service. It
// implements [ports.IdentityClient]; the auth middleware uses it to enrich a
// token's actor with role tags.
//
// Records are translated by the [user] sub-package and HTTP errors are
// mapped to domain errors by [TranslateHTTPError]. Circuit breaking, retry,
// rate limiting and tracing come from the underlying [httpclient.Client].
type IdentityClient struct {
	req *Requester
}

// NewIdentityClient creates an IdentityClient that sends requests through
// client. The client's BaseURL should point at the identity service root.
func NewIdentityClient(client *httpclient.Client, logger *slog.Logger) *IdentityClient {
	return &IdentityClient{req: NewRequester(client, logger)}
}

// GetUser fetches a single user from GET /api/v1/users/{id}.
// Returns [domain.ErrNotFound] if the identity service returns 404.
func (c *IdentityClient) GetUser(ctx context.Context, userID string) (*domainuser.User, error) {
	var dto user.UserDTO
	if err := c.req.Get(ctx, "/api/v1/users/"+url.PathEscape(userID), http.StatusOK, &dto); err != nil {
		return nil, err
	}
	u := user.ToDomainUser(&dto)
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return &u, nil
}

// Name returns the identifier used for health registration. It matches the
// service name given to the underlying client for tracing and metrics.
func (c *IdentityClient) Name() string {
	return c.req.Name()
}

// HealthCheck reports the identity service's availability from the circuit
// breaker state. No network call is made.
//
// This reports downstream status, not readiness: the auth middleware falls
// back to token roles when the identity service is down.
func (c *IdentityClient) HealthCheck(ctx context.Context) error {
	return c.req.HealthCheck(ctx)
}
