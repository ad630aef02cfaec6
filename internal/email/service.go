// internal/email/service.go
package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

//go:embed templates
var templateFS embed.FS

const defaultTemplatePath = "templates"

// Mailer is the outbound-email boundary. Services depend on it instead of
// the concrete sendgrid client so tests can substitute a mock.
type Mailer interface {
	SendEmail(data EmailData) error
}

// EmailData contains all necessary information for sending an email
type EmailData struct {
	To           string
	From         string
	FromName     string
	Subject      string
	TemplateName string
	TemplateData interface{}
}

// Service sends templated email through Sendgrid.
type Service struct {
	from           string
	sendgridClient *sendgrid.Client
	templates      map[string]*Template
}

type Template struct {
	HTML      *template.Template
	Plaintext *template.Template
}

func NewService(apiKey, from string) (*Service, error) {
	s := &Service{
		from:           from,
		sendgridClient: sendgrid.NewSendClient(apiKey),
		templates:      make(map[string]*Template),
	}
	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}
	return s, nil
}

// loadTemplates loads all email templates from the embedded filesystem.
// Each template group holds exactly an HTML and a plaintext variant.
func (s *Service) loadTemplates() error {
	groups, err := templateFS.ReadDir(defaultTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read email templates directory: %w", err)
	}

	for _, group := range groups {
		if !group.IsDir() {
			continue
		}
		groupPath := defaultTemplatePath + "/" + group.Name()
		tmpl := Template{
			HTML:      template.Must(template.ParseFS(templateFS, groupPath+"/html.tmpl")),
			Plaintext: template.Must(template.ParseFS(templateFS, groupPath+"/plaintext.tmpl")),
		}
		s.templates[group.Name()] = &tmpl
	}

	if len(s.templates) == 0 {
		return fmt.Errorf("no email templates found")
	}
	return nil
}

// SendEmail renders the named template and sends it through Sendgrid.
func (s *Service) SendEmail(data EmailData) error {
	htmlContent, textContent, err := s.renderTemplate(data.TemplateName, data.TemplateData)
	if err != nil {
		return fmt.Errorf("rendering template: %w", err)
	}

	if data.From == "" {
		data.From = s.from
	}

	from := mail.NewEmail(data.FromName, data.From)
	to := mail.NewEmail("", data.To)
	message := mail.NewSingleEmail(from, data.Subject, to, textContent, htmlContent)

	response, err := s.sendgridClient.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email via Sendgrid: %w", err)
	}
	if response.StatusCode != 202 {
		return fmt.Errorf("unexpected Sendgrid status code: %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (s *Service) renderTemplate(name string, data interface{}) (string, string, error) {
	tmpl, exists := s.templates[name]
	if !exists {
		return "", "", fmt.Errorf("template %s not found", name)
	}

	var htmlbuf bytes.Buffer
	if err := tmpl.HTML.Execute(&htmlbuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}

	var textbuf bytes.Buffer
	if err := tmpl.Plaintext.Execute(&textbuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}

	return htmlbuf.String(), textbuf.String(), nil
}
