package httpapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/portfolio/internal/httpapi"
)

const (
	sitemapHomeLocationToken     = "<loc>https://andile.example.com/</loc>"
	sitemapFeedbackLocationToken = "<loc>https://andile.example.com/feedback</loc>"
	footerAdminLinkToken         = `<a href="/admin/login">Admin</a>`
)

func TestPublicPagesRender(t *testing.T) {
	harness := newPortfolioHarness(t, harnessOptions{})

	testCases := []struct {
		name          string
		path          string
		expectedToken string
	}{
		{name: "home", path: httpapi.HomePath, expectedToken: "Software developer building for the web"},
		{name: "home alias", path: httpapi.HomeAliasPath, expectedToken: `id="home"`},
		{name: "about", path: httpapi.AboutPath, expectedToken: "self-taught developer"},
		{name: "certificates", path: httpapi.CertificatesPath, expectedToken: "Responsive Web Design"},
		{name: "testimonials", path: httpapi.TestimonialsPath, expectedToken: "Thandi M."},
		{name: "feedback form", path: httpapi.FeedbackPath, expectedToken: `id="feedback-form"`},
		{name: "sent", path: httpapi.SentPath, expectedToken: `id="sent"`},
		{name: "fail", path: httpapi.FailPath, expectedToken: `id="fail"`},
		{name: "login", path: httpapi.AdminLoginPath, expectedToken: `id="login-form"`},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			response := harness.get(testCase.path)
			require.Equal(testingT, http.StatusOK, response.status)
			require.Contains(testingT, response.header.Get("Content-Type"), "text/html")
			require.Contains(testingT, response.body, testCase.expectedToken)
			require.Contains(testingT, response.body, footerAdminLinkToken)
		})
	}
}

func TestRequestLoggerAssignsRequestIdentifier(t *testing.T) {
	harness := newPortfolioHarness(t, harnessOptions{})

	generated := harness.get(httpapi.HomePath)
	require.NotEmpty(t, generated.header.Get(httpapi.HeaderRequestID))

	request, requestErr := http.NewRequest(http.MethodGet, harness.server.URL+httpapi.AboutPath, nil)
	require.NoError(t, requestErr)
	request.Header.Set(httpapi.HeaderRequestID, "trace-123")
	echoed := harness.collect(mustDo(t, harness.client, request))
	require.Equal(t, "trace-123", echoed.header.Get(httpapi.HeaderRequestID))
}

func mustDo(t *testing.T, client *http.Client, request *http.Request) *http.Response {
	t.Helper()
	response, doErr := client.Do(request)
	require.NoError(t, doErr)
	return response
}

func TestSitemapListsPublicPages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	context, _ := gin.CreateTestContext(recorder)
	context.Request = httptest.NewRequest(http.MethodGet, httpapi.SitemapRoutePath, nil)

	handlers := httpapi.NewSitemapHandlers("https://andile.example.com/")
	handlers.RenderSitemap(context)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Header().Get("Content-Type"), "application/xml")
	body := recorder.Body.String()
	require.Contains(t, body, sitemapHomeLocationToken)
	require.Contains(t, body, sitemapFeedbackLocationToken)
	require.NotContains(t, body, "/admin")
}

func TestSitemapFallsBackToLocalBaseURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	context, _ := gin.CreateTestContext(recorder)
	context.Request = httptest.NewRequest(http.MethodGet, httpapi.SitemapRoutePath, nil)

	httpapi.NewSitemapHandlers("  ").RenderSitemap(context)

	require.Contains(t, recorder.Body.String(), "<loc>http://localhost:5000/about</loc>")
}

func TestHealthReportsDatabaseState(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name           string
		ping           httpapi.DatabasePinger
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "reachable",
			ping:           func(context.Context) error { return nil },
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"ok"}`,
		},
		{
			name:           "unreachable",
			ping:           func(context.Context) error { return errors.New("connection refused") },
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"status":"unavailable"}`,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			recorder := httptest.NewRecorder()
			ginContext, _ := gin.CreateTestContext(recorder)
			ginContext.Request = httptest.NewRequest(http.MethodGet, httpapi.HealthPath, nil)

			httpapi.NewHealthHandlers(zap.NewNop(), testCase.ping).Health(ginContext)

			require.Equal(testingT, testCase.expectedStatus, recorder.Code)
			require.JSONEq(testingT, testCase.expectedBody, recorder.Body.String())
		})
	}
}
