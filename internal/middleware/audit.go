package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/service/audit"
)

type AuditMiddleware struct {
	logger *audit.AuditLogger
}

func NewAuditMiddleware(logger *audit.AuditLogger) *AuditMiddleware {
	return &AuditMiddleware{logger: logger}
}

// AuditLog records mutating requests against entityType once they succeed.
func (m *AuditMiddleware) AuditLog(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action := auditAction(c.Request.Method)
		if action == "" || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		userID := c.GetString(ContextUserID)
		if userID == "" {
			return
		}

		m.logger.Log(c.Request.Context(), userID, action, entityType, c.Param("id"), &audit.LogOptions{
			Metadata: map[string]interface{}{
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
				"status":     c.Writer.Status(),
				"request_id": c.GetString(ContextRequestID),
			},
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
	}
}

// Action records a fixed action, for routes whose method does not describe
// them (login, approve, reject).
func (m *AuditMiddleware) Action(action, entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		userID := c.GetString(ContextUserID)
		if userID == "" {
			return
		}
		m.logger.Log(c.Request.Context(), userID, action, entityType, c.Param("id"), &audit.LogOptions{
			Metadata: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"status": c.Writer.Status(),
			},
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
	}
}

func auditAction(method string) string {
	switch method {
	case http.MethodPost:
		return model.AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return model.AuditActionUpdate
	case http.MethodDelete:
		return model.AuditActionDelete
	}
	return ""
}
