package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"venu/internal/auth"
	"venu/internal/dto"
)

const actorKey = "actor"

var ErrNotStaff = errors.New("token has no staff capability")

// staffClaims is the contract with the external identity provider: whoever
// holds the signing secret asserts staff capability via the is_staff claim.
type staffClaims struct {
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

func LoggingMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()
		zlog.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// ParseStaffToken verifies a bearer token and returns the staff actor it
// asserts. Tokens without the staff capability are rejected here, not in
// the handlers.
func ParseStaffToken(tokenString, secret string) (auth.Actor, error) {
	claims := &staffClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return auth.Actor{}, err
	}
	if !tok.Valid {
		return auth.Actor{}, jwt.ErrTokenUnverifiable
	}
	if !claims.IsStaff {
		return auth.Actor{}, ErrNotStaff
	}

	subject := claims.Username
	if subject == "" {
		subject = claims.Subject
	}
	return auth.StaffActor(subject), nil
}

// StaffAuth gates a route group on a verified staff JWT. The resulting
// actor is stored on the context for handlers to pass into the service.
func StaffAuth(secret string) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			dto.UnauthorizedError(c)
			c.Abort()
			return
		}

		actor, err := ParseStaffToken(strings.TrimPrefix(header, prefix), secret)
		if err != nil {
			zlog.Logger.Debug().Err(err).Msg("staff token rejected")
			dto.UnauthorizedError(c)
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor the StaffAuth middleware stored, or a
// zero-capability actor when the route is unauthenticated.
func ActorFrom(c *ginext.Context) auth.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return auth.Actor{}
	}
	actor, ok := v.(auth.Actor)
	if !ok {
		return auth.Actor{}
	}
	return actor
}
