package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	userIDKey       = "user_id"
	memberKey       = "member"
	tenantMemberKey = "tenant_member"
)

// UserID returns the caller identity injected by the identity middleware.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// DevIdentity authenticates every request as userID. A caller may override
// it with an X-User-ID header, which is convenient for local testing of
// multi-user flows.
func DevIdentity(userID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := userID
			if h := strings.TrimSpace(c.Request().Header.Get("X-User-ID")); h != "" {
				id = h
			}
			c.Set(userIDKey, id)
			return next(c)
		}
	}
}

// HS256Keyfunc verifies tokens signed with a shared secret.
func HS256Keyfunc(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	}
}

// JWKSKeyfunc fetches signing keys from a JWKS endpoint and keeps them
// refreshed in the background until ctx is cancelled.
func JWKSKeyfunc(ctx context.Context, url string) (jwt.Keyfunc, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{url})
	if err != nil {
		return nil, fmt.Errorf("jwks %s: %w", url, err)
	}
	return k.Keyfunc, nil
}

// TokenOptions narrows which tokens BearerIdentity accepts. Empty fields are
// not checked.
type TokenOptions struct {
	Issuer   string
	Audience string
}

// BearerIdentity validates the bearer token with keyFunc and injects its
// "sub" claim as the caller identity.
func BearerIdentity(keyFunc jwt.Keyfunc, opts TokenOptions) echo.MiddlewareFunc {
	parserOpts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	parser := jwt.NewParser(parserOpts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := parser.ParseWithClaims(parts[1], claims, keyFunc)
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if opts.Audience != "" && !audienceMatches(claims, opts.Audience) {
				return echo.NewHTTPError(http.StatusUnauthorized, "token issued for another client")
			}

			sub, _ := claims.GetSubject()
			if sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}
			c.Set(userIDKey, sub)

			return next(c)
		}
	}
}

// audienceMatches accepts either an aud claim (ID tokens) or a client_id
// claim (Cognito access tokens).
func audienceMatches(claims jwt.MapClaims, clientID string) bool {
	if aud, err := claims.GetAudience(); err == nil {
		for _, a := range aud {
			if a == clientID {
				return true
			}
		}
	}
	cid, _ := claims["client_id"].(string)
	return cid == clientID
}
