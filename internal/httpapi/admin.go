package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/portfolio/internal/auth"
	"github.com/MarkoPoloResearchLab/portfolio/internal/model"
	"github.com/MarkoPoloResearchLab/portfolio/internal/storage"
)

const (
	AdminLoginPath     = "/admin/login"
	AdminDashboardPath = "/admin/dashboard"
	AdminLogoutPath    = "/admin/logout"
	AdminDeletePath    = "/admin/delete/:id"
	AdminMarkReadPath  = "/admin/mark-read/:id"

	routeParamID       = "id"
	formFieldUsername  = "username"
	formFieldPassword  = "password"
	jsonKeyError       = "error"
	dashboardPageTitle = "Admin dashboard"
	loginPageTitle     = "Admin login"

	errorValueUnauthorized = "unauthorized"
	errorValueQueryFailed  = "query_failed"

	FlashLoginRequired     = "Please login to access the admin dashboard"
	flashLoginSucceeded    = "Login successful"
	flashLoginFailed       = "Invalid username or password"
	flashLoginUnavailable  = "Login is temporarily unavailable"
	flashLoggedOut         = "You have been logged out"
	flashMessageDeleted    = "Message deleted successfully"
	flashMessageMarkedRead = "Message marked as read"
	flashMessageNotFound   = "Message not found"
	flashDeleteFailed      = "Error deleting message"
	flashMarkReadFailed    = "Error marking message as read"
	flashDashboardFailed   = "Messages could not be loaded"

	logEventLogin         = "admin_login"
	logEventLoginFailed   = "admin_login_failed"
	logEventListMessages  = "list_messages"
	logEventCountUnread   = "count_unread_messages"
	logEventDeleteMessage = "delete_message"
	logEventMarkRead      = "mark_read_message"
)

// Authenticator is the session authenticator used by the admin surface.
type Authenticator interface {
	Login(session *sessions.Session, username string, password string) error
	Logout(session *sessions.Session)
	IsAuthenticated(session *sessions.Session) bool
}

// MessageModerator runs the admin moderation actions.
type MessageModerator interface {
	ListAll(ctx context.Context, session *sessions.Session) ([]model.Message, error)
	MarkRead(ctx context.Context, session *sessions.Session, id uint) error
	Delete(ctx context.Context, session *sessions.Session, id uint) error
}

// UnreadCounter reports the number of unread messages.
type UnreadCounter interface {
	Count(ctx context.Context) (int64, error)
}

type dashboardView struct {
	Messages    []model.Message
	UnreadCount int64
}

// AdminHandlers serves the login flow and the moderation dashboard.
type AdminHandlers struct {
	logger        *zap.Logger
	renderer      *PageRenderer
	sessions      *SessionManager
	authenticator Authenticator
	moderator     MessageModerator
	counter       UnreadCounter
}

func NewAdminHandlers(logger *zap.Logger, renderer *PageRenderer, sessions *SessionManager, authenticator Authenticator, moderator MessageModerator, counter UnreadCounter) *AdminHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandlers{
		logger:        logger,
		renderer:      renderer,
		sessions:      sessions,
		authenticator: authenticator,
		moderator:     moderator,
		counter:       counter,
	}
}

func (handlers *AdminHandlers) RenderLogin(context *gin.Context) {
	if handlers.authenticator.IsAuthenticated(handlers.sessions.Load(context)) {
		context.Redirect(http.StatusFound, AdminDashboardPath)
		return
	}
	handlers.renderer.Render(context, pageLogin, loginPageTitle, nil)
}

func (handlers *AdminHandlers) Login(context *gin.Context) {
	session := handlers.sessions.Load(context)
	if handlers.authenticator.IsAuthenticated(session) {
		context.Redirect(http.StatusFound, AdminDashboardPath)
		return
	}

	loginErr := handlers.authenticator.Login(session, context.PostForm(formFieldUsername), context.PostForm(formFieldPassword))
	switch {
	case loginErr == nil:
		handlers.logger.Info(logEventLogin, zap.String("ip", context.ClientIP()))
		handlers.sessions.RedirectWithFlash(context, session, FlashCategorySuccess, flashLoginSucceeded, AdminDashboardPath)
	case errors.Is(loginErr, auth.ErrInvalidCredentials):
		handlers.logger.Warn(logEventLoginFailed, zap.String("ip", context.ClientIP()))
		handlers.sessions.RedirectWithFlash(context, session, FlashCategoryError, flashLoginFailed, AdminLoginPath)
	default:
		handlers.logger.Error(logEventLoginFailed, zap.Error(loginErr))
		handlers.sessions.RedirectWithFlash(context, session, FlashCategoryError, flashLoginUnavailable, AdminLoginPath)
	}
}

func (handlers *AdminHandlers) Logout(context *gin.Context) {
	session := handlers.sessions.Load(context)
	handlers.authenticator.Logout(session)
	handlers.sessions.RedirectWithFlash(context, session, FlashCategorySuccess, flashLoggedOut, HomePath)
}

func (handlers *AdminHandlers) RenderDashboard(context *gin.Context) {
	session := handlers.sessions.Load(context)
	requestContext := context.Request.Context()

	messages, listErr := handlers.moderator.ListAll(requestContext, session)
	if listErr != nil {
		if errors.Is(listErr, auth.ErrAuthRequired) {
			handlers.sessions.RedirectWithFlash(context, session, FlashCategoryError, FlashLoginRequired, AdminLoginPath)
			return
		}
		handlers.logger.Error(logEventListMessages, zap.Error(listErr))
		handlers.sessions.RedirectWithFlash(context, session, FlashCategoryError, flashDashboardFailed, FailPath)
		return
	}

	unreadCount, countErr := handlers.counter.Count(requestContext)
	if countErr != nil {
		handlers.logger.Error(logEventCountUnread, zap.Error(countErr))
		handlers.sessions.RedirectWithFlash(context, session, FlashCategoryError, flashDashboardFailed, FailPath)
		return
	}

	handlers.renderer.Render(context, pageDashboard, dashboardPageTitle, dashboardView{
		Messages:    messages,
		UnreadCount: unreadCount,
	})
}

func (handlers *AdminHandlers) DeleteMessage(context *gin.Context) {
	session := handlers.sessions.Load(context)
	messageID, parsed := parseMessageID(context)
	deleteErr := storage.ErrMessageNotFound
	if parsed {
		deleteErr = handlers.moderator.Delete(context.Request.Context(), session, messageID)
	}
	handlers.finishModeration(context, session, deleteErr, flashMessageDeleted, flashDeleteFailed, logEventDeleteMessage)
}

func (handlers *AdminHandlers) MarkMessageRead(context *gin.Context) {
	session := handlers.sessions.Load(context)
	messageID, parsed := parseMessageID(context)
	markErr := storage.ErrMessageNotFound
	if parsed {
		markErr = handlers.moderator.MarkRead(context.Request.Context(), session, messageID)
	}
	handlers.finishModeration(context, session, markErr, flashMessageMarkedRead, flashMarkReadFailed, logEventMarkRead)
}

func (handlers *AdminHandlers) finishModeration(context *gin.Context, session *sessions.Session, operationErr error, successNotice string, failureNotice string, logEvent string) {
	switch {
	case operationErr == nil:
		handlers.sessions.RedirectWithFlash(context, session, FlashCategorySuccess, successNotice, AdminDashboardPath)
	case errors.Is(operationErr, auth.ErrAuthRequired):
		handlers.sessions.RedirectWithFlash(context, session, FlashCategoryError, "", AdminLoginPath)
	case errors.Is(operationErr, storage.ErrMessageNotFound):
		handlers.sessions.RedirectWithFlash(context, session, FlashCategoryError, flashMessageNotFound, AdminDashboardPath)
	default:
		handlers.logger.Error(logEvent, zap.Error(operationErr))
		handlers.sessions.RedirectWithFlash(context, session, FlashCategoryError, failureNotice, AdminDashboardPath)
	}
}

func parseMessageID(context *gin.Context) (uint, bool) {
	parsedID, parseErr := strconv.ParseUint(context.Param(routeParamID), 10, 32)
	if parseErr != nil || parsedID == 0 {
		return 0, false
	}
	return uint(parsedID), true
}
