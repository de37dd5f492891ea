package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HealthPath = "/healthz"

	jsonKeyStatus        = "status"
	healthStatusOK       = "ok"
	healthStatusDegraded = "unavailable"
	healthCheckTimeout   = 2 * time.Second
	logEventHealthCheck  = "health_check"
)

// DatabasePinger reports whether the backing store is reachable.
type DatabasePinger func(ctx context.Context) error

type HealthHandlers struct {
	logger *zap.Logger
	ping   DatabasePinger
}

func NewHealthHandlers(logger *zap.Logger, ping DatabasePinger) *HealthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandlers{logger: logger, ping: ping}
}

func (handlers *HealthHandlers) Health(ginContext *gin.Context) {
	if handlers.ping != nil {
		pingContext, cancel := context.WithTimeout(ginContext.Request.Context(), healthCheckTimeout)
		defer cancel()
		if pingErr := handlers.ping(pingContext); pingErr != nil {
			handlers.logger.Warn(logEventHealthCheck, zap.Error(pingErr))
			ginContext.JSON(http.StatusServiceUnavailable, gin.H{jsonKeyStatus: healthStatusDegraded})
			return
		}
	}
	ginContext.JSON(http.StatusOK, gin.H{jsonKeyStatus: healthStatusOK})
}
