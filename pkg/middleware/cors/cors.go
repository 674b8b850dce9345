package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders  = "Content-Type, X-Requested-With, X-Request-ID"
	exposeHeaders = "Content-Disposition, X-Request-ID"
	allowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
)

// Policy decides which browser origins may call the API.
type Policy struct {
	origins map[string]struct{}
	// Paths under these prefixes answer every origin without credentials.
	// Calendar feeds are fetched by third-party calendar clients.
	public []string
}

// NewPolicy builds a policy. An empty origin list allows every origin.
func NewPolicy(allowedOrigins []string, publicPrefixes ...string) *Policy {
	p := &Policy{public: publicPrefixes}
	if len(allowedOrigins) > 0 {
		p.origins = make(map[string]struct{}, len(allowedOrigins))
		for _, origin := range allowedOrigins {
			p.origins[normalize(origin)] = struct{}{}
		}
	}
	return p
}

// Allows reports whether origin may read responses for path.
func (p *Policy) Allows(origin, path string) bool {
	if p.origins == nil || p.isPublic(path) {
		return true
	}
	_, ok := p.origins[normalize(origin)]
	return ok
}

func (p *Policy) isPublic(path string) bool {
	for _, prefix := range p.public {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// New returns the gin middleware applying the policy.
func New(allowedOrigins []string, publicPrefixes ...string) gin.HandlerFunc {
	policy := NewPolicy(allowedOrigins, publicPrefixes...)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Vary", "Origin")

		origin := c.GetHeader("Origin")
		path := c.Request.URL.Path
		switch {
		case origin == "" && policy.origins == nil:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin == "":
		case policy.isPublic(path):
			h.Set("Access-Control-Allow-Origin", "*")
		case policy.Allows(origin, path):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Expose-Headers", exposeHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(origin, "/"))
}
