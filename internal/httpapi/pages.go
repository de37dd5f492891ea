package httpapi

import (
	"github.com/gin-gonic/gin"
)

const (
	HomePath         = "/"
	HomeAliasPath    = "/home"
	AboutPath        = "/about"
	CertificatesPath = "/certificates"
	TestimonialsPath = "/testimonials"
	FeedbackPath     = "/feedback"
	SentPath         = "/sent"
	FailPath         = "/fail"
)

// PageHandlers renders the public pages.
type PageHandlers struct {
	renderer *PageRenderer
}

func NewPageHandlers(renderer *PageRenderer) *PageHandlers {
	return &PageHandlers{renderer: renderer}
}

func (handlers *PageHandlers) RenderHome(context *gin.Context) {
	handlers.renderer.Render(context, pageHome, "Home", nil)
}

func (handlers *PageHandlers) RenderAbout(context *gin.Context) {
	handlers.renderer.Render(context, pageAbout, "About", nil)
}

func (handlers *PageHandlers) RenderCertificates(context *gin.Context) {
	handlers.renderer.Render(context, pageCertificates, "Certificates", nil)
}

func (handlers *PageHandlers) RenderTestimonials(context *gin.Context) {
	handlers.renderer.Render(context, pageTestimonials, "Testimonials", nil)
}

func (handlers *PageHandlers) RenderFeedbackForm(context *gin.Context) {
	handlers.renderer.Render(context, pageFeedback, "Feedback", nil)
}

func (handlers *PageHandlers) RenderSent(context *gin.Context) {
	handlers.renderer.Render(context, pageSent, "Message sent", nil)
}

func (handlers *PageHandlers) RenderFail(context *gin.Context) {
	handlers.renderer.Render(context, pageFail, "Message not sent", nil)
}
