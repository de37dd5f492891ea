package footer

import (
	"bytes"
	"html/template"
)

// Link describes an outbound entry displayed in the footer link list.
type Link struct {
	Label string
	URL   string
}

// Config captures the markup and style hooks required to render the footer.
type Config struct {
	ElementID      string
	BaseClass      string
	InnerClass     string
	PrefixText     string
	OwnerName      string
	Year           int
	LinkListClass  string
	LinkItemClass  string
	AdminLinkHref  string
	AdminLinkLabel string
	Links          []Link
}

var (
	footerTemplate = template.Must(template.New("footer").Parse(`<footer id="{{.ElementID}}" class="{{.BaseClass}}">
  <div class="{{.InnerClass}}">
    <span class="footer-brand">{{.PrefixText}} {{if .Year}}{{.Year}} {{end}}{{.OwnerName}}</span>
    <ul class="{{.LinkListClass}}">
      {{range .Links}}
      <li class="{{$.LinkItemClass}}"><a href="{{.URL}}" target="_blank" rel="noopener noreferrer">{{.Label}}</a></li>
      {{end}}
      {{if .AdminLinkHref}}<li class="{{.LinkItemClass}}"><a href="{{.AdminLinkHref}}">{{.AdminLinkLabel}}</a></li>{{end}}
    </ul>
  </div>
</footer>`))
)

// Render returns the footer HTML for the provided configuration.
func Render(config Config) (template.HTML, error) {
	var buffer bytes.Buffer
	if err := footerTemplate.Execute(&buffer, config); err != nil {
		return "", err
	}
	return template.HTML(buffer.String()), nil
}
