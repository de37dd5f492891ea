package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// UnreadCountPath serves the live unread counter polled by the dashboard.
	UnreadCountPath = "/api/unread-count"

	jsonKeyUnread = "unread"
)

type UnreadHandlers struct {
	logger  *zap.Logger
	counter UnreadCounter
}

func NewUnreadHandlers(logger *zap.Logger, counter UnreadCounter) *UnreadHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnreadHandlers{logger: logger, counter: counter}
}

func (handlers *UnreadHandlers) UnreadCount(context *gin.Context) {
	unreadCount, countErr := handlers.counter.Count(context.Request.Context())
	if countErr != nil {
		handlers.logger.Error(logEventCountUnread, zap.Error(countErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}
	context.JSON(http.StatusOK, gin.H{jsonKeyUnread: unreadCount})
}
