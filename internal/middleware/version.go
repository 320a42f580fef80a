package middleware

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/pkg/httputil"
)

const HeaderAPIVersion = "X-API-Version"

// VersionConfig represents version middleware configuration
type VersionConfig struct {
	HeaderName     string
	DefaultVersion string
	Supported      []string
}

func DefaultVersionConfig() VersionConfig {
	return VersionConfig{
		HeaderName:     "Accept-Version",
		DefaultVersion: "1.0",
		Supported:      []string{"1.0"},
	}
}

var versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)$`)

// Version rejects requests asking for an API version this server does not
// speak and echoes the served version.
func Version(config VersionConfig) gin.HandlerFunc {
	supported := make(map[string]bool, len(config.Supported))
	for _, v := range config.Supported {
		supported[v] = true
	}

	return func(c *gin.Context) {
		requested := c.GetHeader(config.HeaderName)
		if requested == "" {
			requested = config.DefaultVersion
		}

		if !versionRegex.MatchString(requested) {
			c.AbortWithStatusJSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid version format, use major.minor"))
			return
		}
		if !supported[requested] {
			c.AbortWithStatusJSON(http.StatusNotAcceptable,
				httputil.NewErrorResponse(fmt.Sprintf("API version %s not supported", requested)))
			return
		}

		c.Header(HeaderAPIVersion, requested)
		c.Next()
	}
}
