package httpapi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/portfolio/internal/inbox"
	"github.com/MarkoPoloResearchLab/portfolio/internal/model"
)

const (
	formFieldName    = "name"
	formFieldEmail   = "email"
	formFieldSubject = "subject"
	formFieldMessage = "message"

	flashMissingFields     = "All fields are required"
	flashSubmissionFailed  = "We could not save your message. Please try again later."
	flashTooManySubmission = "Too many submissions. Please wait a moment and try again."

	logEventSaveMessage     = "save_message"
	logEventFeedbackLimited = "feedback_rate_limited"

	// DefaultFeedbackRateWindow is the window the per-IP submission limit applies to.
	DefaultFeedbackRateWindow = 30 * time.Second
)

// FeedbackSubmitter accepts feedback submissions.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, submission inbox.Submission) (model.Message, error)
}

// FeedbackHandlers runs the feedback form submission.
type FeedbackHandlers struct {
	logger    *zap.Logger
	submitter FeedbackSubmitter
	sessions  *SessionManager
	limiter   *submissionRateLimiter
}

// NewFeedbackHandlers builds the handlers. maxSubmissionsPerWindow of zero or less disables
// per-IP limiting.
func NewFeedbackHandlers(logger *zap.Logger, submitter FeedbackSubmitter, sessions *SessionManager, maxSubmissionsPerWindow int) *FeedbackHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackHandlers{
		logger:    logger,
		submitter: submitter,
		sessions:  sessions,
		limiter:   newSubmissionRateLimiter(DefaultFeedbackRateWindow, maxSubmissionsPerWindow),
	}
}

func (handlers *FeedbackHandlers) SubmitFeedback(context *gin.Context) {
	session := handlers.sessions.Load(context)

	clientIP := context.ClientIP()
	if handlers.limiter.isRateLimited(clientIP, time.Now()) {
		handlers.logger.Warn(logEventFeedbackLimited, zap.String("ip", clientIP))
		handlers.sessions.RedirectWithFlash(context, session, FlashCategoryError, flashTooManySubmission, FailPath)
		return
	}

	submission := inbox.Submission{
		Name:    context.PostForm(formFieldName),
		Email:   context.PostForm(formFieldEmail),
		Subject: context.PostForm(formFieldSubject),
		Message: context.PostForm(formFieldMessage),
	}

	message, submitErr := handlers.submitter.Submit(context.Request.Context(), submission)
	switch {
	case submitErr == nil:
		handlers.logger.Info("message_received", zap.Uint("message_id", message.ID))
		handlers.sessions.RedirectWithFlash(context, session, FlashCategorySuccess, "", SentPath)
	case errors.Is(submitErr, model.ErrInvalidMessage):
		handlers.sessions.RedirectWithFlash(context, session, FlashCategoryError, flashMissingFields, FailPath)
	default:
		handlers.logger.Error(logEventSaveMessage, zap.Error(submitErr))
		handlers.sessions.RedirectWithFlash(context, session, FlashCategoryError, flashSubmissionFailed, FailPath)
	}
}

// submissionRateLimiter counts submissions per IP in fixed windows.
type submissionRateLimiter struct {
	window        time.Duration
	maxPerWindow  int
	mutex         sync.Mutex
	currentBucket int64
	countsByIP    map[string]int
}

func newSubmissionRateLimiter(window time.Duration, maxPerWindow int) *submissionRateLimiter {
	if window <= 0 {
		window = DefaultFeedbackRateWindow
	}
	return &submissionRateLimiter{
		window:       window,
		maxPerWindow: maxPerWindow,
		countsByIP:   make(map[string]int),
	}
}

func (limiter *submissionRateLimiter) isRateLimited(ip string, now time.Time) bool {
	if limiter.maxPerWindow <= 0 {
		return false
	}
	bucket := now.UnixNano() / int64(limiter.window)

	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	if bucket != limiter.currentBucket {
		limiter.currentBucket = bucket
		limiter.countsByIP = make(map[string]int)
	}
	limiter.countsByIP[ip]++
	return limiter.countsByIP[ip] > limiter.maxPerWindow
}
