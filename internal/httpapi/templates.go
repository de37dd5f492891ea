package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/portfolio/internal/content"
	"github.com/MarkoPoloResearchLab/portfolio/pkg/footer"
)

const (
	layoutTemplateName   = "layout.tmpl"
	templatePathPattern  = "templates/%s.tmpl"
	htmlContentType      = "text/html; charset=utf-8"
	pageRenderFailure    = "page_render_failed"
	logEventRenderPage   = "render_page"
	logEventRenderFooter = "render_footer"
	dashboardTimeLayout  = "2006-01-02 15:04"

	pageHome         = "home"
	pageAbout        = "about"
	pageCertificates = "certificates"
	pageTestimonials = "testimonials"
	pageFeedback     = "feedback"
	pageSent         = "sent"
	pageFail         = "fail"
	pageLogin        = "login"
	pageDashboard    = "dashboard"

	footerElementID      = "site-footer"
	footerBaseClass      = "border-top mt-auto py-3 bg-body-tertiary"
	footerInnerClass     = "container d-flex flex-wrap justify-content-between align-items-center"
	footerPrefixText     = "©"
	footerLinkListClass  = "list-inline mb-0"
	footerLinkItemClass  = "list-inline-item"
	footerAdminLinkLabel = "Admin"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

var pageNames = []string{
	pageHome,
	pageAbout,
	pageCertificates,
	pageTestimonials,
	pageFeedback,
	pageSent,
	pageFail,
	pageLogin,
	pageDashboard,
}

var templateFunctions = template.FuncMap{
	"formatTime": func(value time.Time) string {
		return value.UTC().Format(dashboardTimeLayout)
	},
}

type pageView struct {
	Title      string
	Active     string
	Site       content.Site
	FooterHTML template.HTML
	Flashes    []Flash
	IsAdmin    bool
	Body       any
}

// PageRenderer renders the site pages inside the shared layout. Pending flash notices are
// consumed from the session on every render.
type PageRenderer struct {
	logger        *zap.Logger
	pages         map[string]*template.Template
	site          content.Site
	footerHTML    template.HTML
	sessions      *SessionManager
	authenticator Authenticator
}

func NewPageRenderer(logger *zap.Logger, site content.Site, sessions *SessionManager, authenticator Authenticator) *PageRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, pageName := range pageNames {
		pages[pageName] = template.Must(template.New(layoutTemplateName).
			Funcs(templateFunctions).
			ParseFS(templateFiles, fmt.Sprintf(templatePathPattern, "layout"), fmt.Sprintf(templatePathPattern, pageName)))
	}

	footerLinks := make([]footer.Link, 0, len(site.Links))
	for _, link := range site.Links {
		footerLinks = append(footerLinks, footer.Link{Label: link.Label, URL: link.URL})
	}
	footerHTML, footerErr := footer.Render(footer.Config{
		ElementID:      footerElementID,
		BaseClass:      footerBaseClass,
		InnerClass:     footerInnerClass,
		PrefixText:     footerPrefixText,
		OwnerName:      site.Owner,
		Year:           time.Now().Year(),
		LinkListClass:  footerLinkListClass,
		LinkItemClass:  footerLinkItemClass,
		AdminLinkHref:  AdminLoginPath,
		AdminLinkLabel: footerAdminLinkLabel,
		Links:          footerLinks,
	})
	if footerErr != nil {
		logger.Error(logEventRenderFooter, zap.Error(footerErr))
		footerHTML = template.HTML("")
	}

	return &PageRenderer{
		logger:        logger,
		pages:         pages,
		site:          site,
		footerHTML:    footerHTML,
		sessions:      sessions,
		authenticator: authenticator,
	}
}

// Render writes the named page with status 200.
func (renderer *PageRenderer) Render(context *gin.Context, pageName string, title string, body any) {
	pageTemplate, found := renderer.pages[pageName]
	if !found {
		renderer.logger.Error(logEventRenderPage, zap.String("page", pageName), zap.Error(fmt.Errorf("unknown page")))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: pageRenderFailure})
		return
	}

	session := renderer.sessions.Load(context)
	flashes := PopFlashes(session)
	if len(flashes) > 0 {
		renderer.sessions.Save(context, session)
	}

	view := pageView{
		Title:      title,
		Active:     pageName,
		Site:       renderer.site,
		FooterHTML: renderer.footerHTML,
		Flashes:    flashes,
		IsAdmin:    renderer.authenticator.IsAuthenticated(session),
		Body:       body,
	}

	var buffer bytes.Buffer
	if executeErr := pageTemplate.Execute(&buffer, view); executeErr != nil {
		renderer.logger.Error(logEventRenderPage, zap.String("page", pageName), zap.Error(executeErr))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: pageRenderFailure})
		return
	}
	context.Data(http.StatusOK, htmlContentType, buffer.Bytes())
}
