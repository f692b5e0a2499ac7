package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-management-api/pkg/helpers"
	"github.com/oksasatya/user-management-api/pkg/response"
)

// CtxSubjectKey is the context key carrying the verified token subject
// (the authenticated user's email).
const CtxSubjectKey = "subjectEmail"

// Auth validates the bearer token from the Authorization header and stores
// the verified subject in the Gin context. Expired, tampered and malformed
// tokens all produce the same unauthorized response; the distinction is
// only logged.
func Auth(jwt *helpers.JWTManager, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "missing bearer token", nil)
			return
		}
		subject, err := jwt.Parse(token, time.Now().UTC())
		if err != nil {
			if logger != nil {
				logger.WithError(err).Debug("token rejected")
			}
			response.AbortError(c, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}
		c.Set(CtxSubjectKey, subject)
		c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
