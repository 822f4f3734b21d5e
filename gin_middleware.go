package idtoken

import (
	"github.com/gin-gonic/gin"

	"github.com/auth0/go-idtoken/core"
)

// GinMiddleware is Middleware for Gin routers.
type GinMiddleware struct {
	m *Middleware
}

// NewGin constructs a GinMiddleware with the same options as New. Errors
// are reported through WithGinErrorHandler's handler.
func NewGin(opts ...Option) (*GinMiddleware, error) {
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return &GinMiddleware{m: m}, nil
}

// CheckJWTGin returns a handler that aborts requests without a valid ID
// token and otherwise stores the claims in the request context.
func (g *GinMiddleware) CheckJWTGin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.m.skip(c.Request) {
			c.Next()
			return
		}

		claims, err := g.m.check(c.Request)
		if err != nil {
			g.m.ginErrorHandler(c, err)
			return
		}

		if claims != nil {
			c.Request = c.Request.Clone(core.SetClaims(c.Request.Context(), claims))
		}
		c.Next()
	}
}
