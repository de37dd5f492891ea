package httpapi

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	SitemapRoutePath     = "/sitemap.xml"
	sitemapContentType   = "application/xml; charset=utf-8"
	sitemapXMLNamespace  = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapRenderFailure = "sitemap_render_failed"
	sitemapDefaultBase   = "http://localhost:5000"
)

var sitemapPublicPaths = []string{
	HomePath,
	AboutPath,
	CertificatesPath,
	TestimonialsPath,
	FeedbackPath,
}

type SitemapHandlers struct {
	baseURL    string
	routePaths []string
}

type sitemapURLEntry struct {
	Location string `xml:"loc"`
}

type sitemapURLSet struct {
	XMLName xml.Name          `xml:"urlset"`
	XMLNS   string            `xml:"xmlns,attr"`
	URLs    []sitemapURLEntry `xml:"url"`
}

func NewSitemapHandlers(baseURL string) *SitemapHandlers {
	normalizedBaseURL := normalizeBaseURL(baseURL)
	if normalizedBaseURL == "" {
		normalizedBaseURL = sitemapDefaultBase
	}
	return &SitemapHandlers{
		baseURL:    normalizedBaseURL,
		routePaths: append([]string(nil), sitemapPublicPaths...),
	}
}

func (handlers *SitemapHandlers) RenderSitemap(context *gin.Context) {
	urlEntries := make([]sitemapURLEntry, 0, len(handlers.routePaths))
	for _, path := range handlers.routePaths {
		urlEntries = append(urlEntries, sitemapURLEntry{
			Location: joinBaseURL(handlers.baseURL, path),
		})
	}

	encoded, err := xml.MarshalIndent(sitemapURLSet{XMLNS: sitemapXMLNamespace, URLs: urlEntries}, "", "  ")
	if err != nil {
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: sitemapRenderFailure})
		return
	}

	document := append([]byte(xml.Header), encoded...)
	context.Data(http.StatusOK, sitemapContentType, document)
}

func normalizeBaseURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}

func joinBaseURL(baseURL string, path string) string {
	normalizedBaseURL := normalizeBaseURL(baseURL)
	if normalizedBaseURL == "" {
		return path
	}
	if path == "" || path == "/" {
		return normalizedBaseURL + "/"
	}
	return normalizedBaseURL + "/" + strings.TrimLeft(path, "/")
}
