// internal/email/welcome.go
package email

// WelcomeTemplateData contains data for the welcome email template
type WelcomeTemplateData struct {
	Name     string
	TeamName string
	BaseURL  string
}

// SendWelcomeEmail greets a freshly registered team manager.
func SendWelcomeEmail(m Mailer, to, name, teamName, baseURL string) error {
	return m.SendEmail(EmailData{
		To:           to,
		FromName:     "Taskhive",
		Subject:      "Welcome to Taskhive! Your team is ready",
		TemplateName: "welcome",
		TemplateData: WelcomeTemplateData{
			Name:     name,
			TeamName: teamName,
			BaseURL:  baseURL,
		},
	})
}
