package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/Aidzix/Monday/internal/adapters/http/dto"
	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/access"
	"github.com/Aidzix/Monday/internal/platform/auth"
	"github.com/Aidzix/Monday/internal/platform/logging"
	"github.com/Aidzix/Monday/internal/ports"
)

// TokenVerifier turns a raw bearer token into the actor it names.
type TokenVerifier interface {
	Verify(raw string) (access.Actor, error)
}

// Authenticate returns middleware that resolves the request's actor from its
// bearer token and stores it via auth.WithActor. Requests without a valid
// token are answered with 401.
//
// When identity is non-nil the actor's role tags are extended with those the
// identity service reports. A user the identity service does not know is
// rejected; any other identity failure falls back to the token's roles.
func Authenticate(verifier TokenVerifier, identity ports.IdentityClient) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				unauthenticated(w, r, err)
				return
			}
			actor, err := verifier.Verify(raw)
			if err != nil {
				logging.FromContext(ctx).WarnContext(ctx, "rejected bearer token",
					slog.Any("error", err),
				)
				unauthenticated(w, r, err)
				return
			}

			if identity != nil {
				u, err := identity.GetUser(ctx, actor.ID)
				switch {
				case errors.Is(err, domain.ErrNotFound):
					unauthenticated(w, r, fmt.Errorf("%w: unknown user %q", domain.ErrUnauthenticated, actor.ID))
					return
				case err != nil:
					logging.FromContext(ctx).WarnContext(ctx, "identity lookup failed, using token roles",
						slog.String("actor_id", actor.ID),
						slog.Any("error", err),
					)
				default:
					actor.Roles = mergeRoles(actor.Roles, u.Roles)
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(ctx, actor)))
		})
	}
}

func unauthenticated(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="boards"`)
	dto.WriteErrorResponse(w, r, err)
}

func mergeRoles(token, identity []string) []string {
	roles := slices.Clone(token)
	for _, role := range identity {
		if !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}
	return roles
}
