package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	// SessionName is the cookie name carrying the client session.
	SessionName = "portfolio_session"

	FlashCategorySuccess = "success"
	FlashCategoryError   = "error"

	flashKeyPrefix         = "_flash_"
	logEventLoadSession    = "load_session"
	logEventSaveSession    = "save_session"
	sessionCookiePath      = "/"
	minimumSessionLifetime = time.Second
)

var flashCategories = []string{FlashCategorySuccess, FlashCategoryError}

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// NewCookieStore builds the signed cookie store backing client sessions.
func NewCookieStore(secret []byte, ttl time.Duration, secureCookies bool) *sessions.CookieStore {
	if ttl < minimumSessionLifetime {
		ttl = minimumSessionLifetime
	}
	store := sessions.NewCookieStore(secret)
	store.MaxAge(int(ttl / time.Second))
	store.Options.Path = sessionCookiePath
	store.Options.HttpOnly = true
	store.Options.Secure = secureCookies
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// SessionManager loads and saves the client session for gin handlers.
type SessionManager struct {
	store  sessions.Store
	name   string
	logger *zap.Logger
}

func NewSessionManager(store sessions.Store, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{store: store, name: SessionName, logger: logger}
}

// Load returns the request's session. A cookie that fails to decode yields a fresh session.
func (manager *SessionManager) Load(context *gin.Context) *sessions.Session {
	session, loadErr := manager.store.Get(context.Request, manager.name)
	if loadErr != nil {
		manager.logger.Warn(logEventLoadSession, zap.Error(loadErr))
	}
	if session == nil {
		session = sessions.NewSession(manager.store, manager.name)
	}
	return session
}

func (manager *SessionManager) Save(context *gin.Context, session *sessions.Session) {
	if saveErr := session.Save(context.Request, context.Writer); saveErr != nil {
		manager.logger.Error(logEventSaveSession, zap.Error(saveErr))
	}
}

// RedirectWithFlash records a flash notice, persists the session and redirects.
func (manager *SessionManager) RedirectWithFlash(context *gin.Context, session *sessions.Session, category string, message string, location string) {
	if message != "" {
		AddFlash(session, category, message)
	}
	manager.Save(context, session)
	context.Redirect(http.StatusFound, location)
}

func AddFlash(session *sessions.Session, category string, message string) {
	session.AddFlash(message, flashKeyPrefix+category)
}

// PopFlashes removes and returns every pending flash notice.
func PopFlashes(session *sessions.Session) []Flash {
	var flashes []Flash
	for _, category := range flashCategories {
		for _, value := range session.Flashes(flashKeyPrefix + category) {
			message, ok := value.(string)
			if !ok || message == "" {
				continue
			}
			flashes = append(flashes, Flash{Category: category, Message: message})
		}
	}
	return flashes
}
