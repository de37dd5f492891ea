// Package content loads the portfolio page content: a YAML catalog whose prose fields are
// Markdown rendered to HTML once at load time.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

const (
	errorMessageMissingOwner  = "content: missing owner"
	errorMessageReadCatalog   = "content: read catalog"
	errorMessageParseCatalog  = "content: parse catalog"
	errorMessageRenderCatalog = "content: render markdown"
)

// ErrMissingOwner indicates the catalog does not name the portfolio owner.
var ErrMissingOwner = errors.New(errorMessageMissingOwner)

//go:embed catalog.yml
var defaultCatalog []byte

// Certificate is a single entry on the certificates page.
type Certificate struct {
	Title  string `yaml:"title"`
	Issuer string `yaml:"issuer"`
	Year   int    `yaml:"year"`
	URL    string `yaml:"url"`
}

type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type catalogDocument struct {
	Owner        string        `yaml:"owner"`
	Tagline      string        `yaml:"tagline"`
	Home         string        `yaml:"home"`
	About        string        `yaml:"about"`
	Certificates []Certificate `yaml:"certificates"`
	Testimonials []struct {
		Author string `yaml:"author"`
		Role   string `yaml:"role"`
		Quote  string `yaml:"quote"`
	} `yaml:"testimonials"`
	Links []Link `yaml:"links"`
}

// Testimonial is a rendered testimonial; Quote is trusted HTML produced from Markdown.
type Testimonial struct {
	Author string
	Role   string
	Quote  template.HTML
}

// Site is the rendered, read-only page content.
type Site struct {
	Owner        string
	Tagline      string
	Home         template.HTML
	About        template.HTML
	Certificates []Certificate
	Testimonials []Testimonial
	Links        []Link
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (Site, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return Parse(defaultCatalog)
	}
	data, readErr := os.ReadFile(trimmedPath)
	if readErr != nil {
		return Site{}, fmt.Errorf("%s: %w", errorMessageReadCatalog, readErr)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and renders its Markdown fields.
func Parse(data []byte) (Site, error) {
	var document catalogDocument
	if decodeErr := yaml.Unmarshal(data, &document); decodeErr != nil {
		return Site{}, fmt.Errorf("%s: %w", errorMessageParseCatalog, decodeErr)
	}

	owner := strings.TrimSpace(document.Owner)
	if owner == "" {
		return Site{}, ErrMissingOwner
	}

	home, homeErr := RenderMarkdown(document.Home)
	if homeErr != nil {
		return Site{}, homeErr
	}
	about, aboutErr := RenderMarkdown(document.About)
	if aboutErr != nil {
		return Site{}, aboutErr
	}

	testimonials := make([]Testimonial, 0, len(document.Testimonials))
	for _, entry := range document.Testimonials {
		quote, quoteErr := RenderMarkdown(entry.Quote)
		if quoteErr != nil {
			return Site{}, quoteErr
		}
		testimonials = append(testimonials, Testimonial{
			Author: strings.TrimSpace(entry.Author),
			Role:   strings.TrimSpace(entry.Role),
			Quote:  quote,
		})
	}

	return Site{
		Owner:        owner,
		Tagline:      strings.TrimSpace(document.Tagline),
		Home:         home,
		About:        about,
		Certificates: document.Certificates,
		Testimonials: testimonials,
		Links:        document.Links,
	}, nil
}

// RenderMarkdown converts Markdown to HTML. Raw HTML in the source is omitted.
func RenderMarkdown(source string) (template.HTML, error) {
	var buffer bytes.Buffer
	if convertErr := goldmark.Convert([]byte(source), &buffer); convertErr != nil {
		return "", fmt.Errorf("%s: %w", errorMessageRenderCatalog, convertErr)
	}
	return template.HTML(buffer.String()), nil
}
