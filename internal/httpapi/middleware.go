package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// HeaderRequestID carries the request identifier in both directions.
	HeaderRequestID     = "X-Request-ID"
	contextKeyRequestID = "httpapi_request_id"
	maxRequestIDLength  = 128
)

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(context *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(context.GetHeader(HeaderRequestID))
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		context.Set(contextKeyRequestID, requestID)
		context.Header(HeaderRequestID, requestID)

		context.Next()
		logger.Info("http",
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", context.ClientIP()),
			zap.String("ua", context.Request.UserAgent()),
			zap.String("request_id", requestID),
		)
	}
}

// RequireAdminWeb redirects anonymous sessions to the login page, leaving notice as a flash
// when it is non-empty.
func RequireAdminWeb(sessions *SessionManager, authenticator Authenticator, notice string) gin.HandlerFunc {
	return func(context *gin.Context) {
		session := sessions.Load(context)
		if authenticator.IsAuthenticated(session) {
			context.Next()
			return
		}
		sessions.RedirectWithFlash(context, session, FlashCategoryError, notice, AdminLoginPath)
		context.Abort()
	}
}

// RequireAdminJSON rejects anonymous sessions with 401.
func RequireAdminJSON(sessions *SessionManager, authenticator Authenticator) gin.HandlerFunc {
	return func(context *gin.Context) {
		if !authenticator.IsAuthenticated(sessions.Load(context)) {
			context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeyError: errorValueUnauthorized})
			return
		}
		context.Next()
	}
}
