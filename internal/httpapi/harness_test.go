package httpapi_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/portfolio/internal/auth"
	"github.com/MarkoPoloResearchLab/portfolio/internal/content"
	"github.com/MarkoPoloResearchLab/portfolio/internal/httpapi"
	"github.com/MarkoPoloResearchLab/portfolio/internal/inbox"
	"github.com/MarkoPoloResearchLab/portfolio/internal/model"
	"github.com/MarkoPoloResearchLab/portfolio/internal/storage"
	"github.com/MarkoPoloResearchLab/portfolio/internal/testutil"
)

const (
	testAdminUsername = "Andile"
	testAdminPassword = "2010"
	testSecretKey     = "0123456789abcdef0123456789abcdef"
	headerLocation    = "Location"
)

type harnessOptions struct {
	feedbackRateLimit  int
	protectUnreadCount bool
	store              inbox.MessageStore
}

type portfolioHarness struct {
	testingT *testing.T
	server   *httptest.Server
	client   *http.Client
	database *gorm.DB
	store    *storage.MessageStore
}

type harnessResponse struct {
	status   int
	location string
	body     string
	header   http.Header
}

func newPortfolioHarness(testingT *testing.T, options harnessOptions) *portfolioHarness {
	testingT.Helper()
	gin.SetMode(gin.TestMode)

	database := testutil.OpenMigratedDatabase(testingT)
	messageStore := storage.NewMessageStore(database)
	var inboxStore inbox.MessageStore = messageStore
	if options.store != nil {
		inboxStore = options.store
	}

	credentials, credentialsErr := auth.NewCredentials(testAdminUsername, testAdminPassword, "")
	require.NoError(testingT, credentialsErr)
	authenticator := auth.NewAuthenticator(credentials, auth.NewTokenIssuer([]byte(testSecretKey), time.Hour))

	site, siteErr := content.Load("")
	require.NoError(testingT, siteErr)

	logger := zap.NewNop()
	sessionManager := httpapi.NewSessionManager(httpapi.NewCookieStore([]byte(testSecretKey), time.Hour, false), logger)
	renderer := httpapi.NewPageRenderer(logger, site, sessionManager, authenticator)
	counter := inbox.NewUnreadCounter(inboxStore)

	pageHandlers := httpapi.NewPageHandlers(renderer)
	feedbackHandlers := httpapi.NewFeedbackHandlers(logger, inbox.NewIntake(inboxStore, nil), sessionManager, options.feedbackRateLimit)
	adminHandlers := httpapi.NewAdminHandlers(logger, renderer, sessionManager, authenticator, inbox.NewModerator(inboxStore, authenticator), counter)
	unreadHandlers := httpapi.NewUnreadHandlers(logger, counter)

	router := gin.New()
	router.Use(httpapi.RequestLogger(logger))
	router.GET(httpapi.HomePath, pageHandlers.RenderHome)
	router.GET(httpapi.HomeAliasPath, pageHandlers.RenderHome)
	router.GET(httpapi.AboutPath, pageHandlers.RenderAbout)
	router.GET(httpapi.CertificatesPath, pageHandlers.RenderCertificates)
	router.GET(httpapi.TestimonialsPath, pageHandlers.RenderTestimonials)
	router.GET(httpapi.FeedbackPath, pageHandlers.RenderFeedbackForm)
	router.POST(httpapi.FeedbackPath, feedbackHandlers.SubmitFeedback)
	router.GET(httpapi.SentPath, pageHandlers.RenderSent)
	router.GET(httpapi.FailPath, pageHandlers.RenderFail)
	router.GET(httpapi.AdminLoginPath, adminHandlers.RenderLogin)
	router.POST(httpapi.AdminLoginPath, adminHandlers.Login)
	router.GET(httpapi.AdminLogoutPath, adminHandlers.Logout)
	router.GET(httpapi.AdminDashboardPath, httpapi.RequireAdminWeb(sessionManager, authenticator, httpapi.FlashLoginRequired), adminHandlers.RenderDashboard)
	router.GET(httpapi.AdminDeletePath, adminHandlers.DeleteMessage)
	router.GET(httpapi.AdminMarkReadPath, adminHandlers.MarkMessageRead)
	if options.protectUnreadCount {
		router.GET(httpapi.UnreadCountPath, httpapi.RequireAdminJSON(sessionManager, authenticator), unreadHandlers.UnreadCount)
	} else {
		router.GET(httpapi.UnreadCountPath, unreadHandlers.UnreadCount)
	}

	server := httptest.NewServer(router)
	testingT.Cleanup(server.Close)

	jar, jarErr := cookiejar.New(nil)
	require.NoError(testingT, jarErr)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &portfolioHarness{
		testingT: testingT,
		server:   server,
		client:   client,
		database: database,
		store:    messageStore,
	}
}

func (harness *portfolioHarness) get(path string) harnessResponse {
	harness.testingT.Helper()
	response, requestErr := harness.client.Get(harness.server.URL + path)
	require.NoError(harness.testingT, requestErr)
	return harness.collect(response)
}

func (harness *portfolioHarness) postForm(path string, values url.Values) harnessResponse {
	harness.testingT.Helper()
	response, requestErr := harness.client.PostForm(harness.server.URL+path, values)
	require.NoError(harness.testingT, requestErr)
	return harness.collect(response)
}

func (harness *portfolioHarness) collect(response *http.Response) harnessResponse {
	harness.testingT.Helper()
	defer response.Body.Close()
	body, readErr := io.ReadAll(response.Body)
	require.NoError(harness.testingT, readErr)
	return harnessResponse{
		status:   response.StatusCode,
		location: response.Header.Get(headerLocation),
		body:     string(body),
		header:   response.Header,
	}
}

func (harness *portfolioHarness) login() {
	harness.testingT.Helper()
	response := harness.postForm(httpapi.AdminLoginPath, url.Values{
		"username": {testAdminUsername},
		"password": {testAdminPassword},
	})
	require.Equal(harness.testingT, http.StatusFound, response.status)
	require.Equal(harness.testingT, httpapi.AdminDashboardPath, response.location)
}

func (harness *portfolioHarness) submitFeedback(name string, email string, subject string, message string) harnessResponse {
	harness.testingT.Helper()
	return harness.postForm(httpapi.FeedbackPath, url.Values{
		"name":    {name},
		"email":   {email},
		"subject": {subject},
		"message": {message},
	})
}

func (harness *portfolioHarness) seedMessage(name string, isRead bool) model.Message {
	harness.testingT.Helper()
	message, buildErr := model.NewMessage(model.MessageInput{
		Name:    name,
		Email:   strings.ToLower(name) + "@example.com",
		Subject: "Subject from " + name,
		Message: "Body from " + name,
	}, time.Now())
	require.NoError(harness.testingT, buildErr)
	message.IsRead = isRead
	require.NoError(harness.testingT, harness.store.Create(context.Background(), &message))
	return message
}

func (harness *portfolioHarness) messageCount() int64 {
	harness.testingT.Helper()
	var count int64
	require.NoError(harness.testingT, harness.database.Model(&model.Message{}).Count(&count).Error)
	return count
}

// failingStore reports a storage failure from every operation.
type failingStore struct{}

func (failingStore) failure() error {
	return fmt.Errorf("%w: disk I/O error", storage.ErrStorage)
}

func (store failingStore) Create(context.Context, *model.Message) error {
	return store.failure()
}

func (store failingStore) ListNewestFirst(context.Context) ([]model.Message, error) {
	return nil, store.failure()
}

func (store failingStore) CountUnread(context.Context) (int64, error) {
	return 0, store.failure()
}

func (store failingStore) MarkRead(context.Context, uint) (model.Message, error) {
	return model.Message{}, store.failure()
}

func (store failingStore) Delete(context.Context, uint) error {
	return store.failure()
}
