package api

import (
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

// principalContextKey is where the authenticated principal lands in the
// echo context. Empty string means anonymous.
const principalContextKey = "principal"

// principalMiddleware extracts the authenticated principal from the signed
// session cookie issued by the external identity provider. Requests without
// a valid cookie proceed as anonymous; the service never rejects on missing
// identity.
func (c *Controller) principalMiddleware() echo.MiddlewareFunc {
	var store *sessions.CookieStore
	if secret := c.Settings.Security.SessionSecret; secret != "" {
		store = sessions.NewCookieStore([]byte(secret))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if store != nil {
				session, err := store.Get(ctx.Request(), c.Settings.Security.SessionName)
				if err == nil {
					if user, ok := session.Values["user"].(string); ok && user != "" {
						ctx.Set(principalContextKey, user)
					}
				}
			}
			return next(ctx)
		}
	}
}

// currentPrincipal returns the request's principal, or nil when anonymous.
func currentPrincipal(ctx echo.Context) *string {
	if v, ok := ctx.Get(principalContextKey).(string); ok && v != "" {
		return &v
	}
	return nil
}
