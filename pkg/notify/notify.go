// Package notify emails run reports over SMTP. Without full SMTP
// credentials it degrades to a no-op service so runs never fail on
// missing mail settings.
package notify

import (
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"plugindiff/models"
)

// Report carries the differences one run found.
type Report struct {
	GeneratedAt time.Time
	Outdated    []models.Match
	Missing     []models.Match
}

// Total returns the number of reported differences.
func (r Report) Total() int {
	return len(r.Outdated) + len(r.Missing)
}

// Service delivers run reports.
type Service interface {
	SendReport(report Report) error
}

// New returns an SMTP-backed service when cfg carries full credentials
// and a no-op service otherwise.
func New(cfg models.Config, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !cfg.SMTPConfigured() {
		return &noopService{logger: logger}
	}

	smtp := cfg.SMTP
	dialer := gomail.NewDialer(smtp.Host, smtp.Port, smtp.Username, smtp.Password)
	return &smtpService{
		cfg:    smtp,
		logger: logger,
		send:   dialer.DialAndSend,
	}
}

type noopService struct {
	logger *slog.Logger
}

func (s *noopService) SendReport(report Report) error {
	s.logger.Warn("smtp not configured, skipping notification", "differences", report.Total())
	return nil
}

type smtpService struct {
	cfg    models.SMTPConfig
	logger *slog.Logger
	send   func(...*gomail.Message) error
}

func (s *smtpService) SendReport(report Report) error {
	if report.Total() == 0 {
		s.logger.Info("no differences to report, skipping notification")
		return nil
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now()
	}

	text := textBody(report)
	html, err := htmlBody(report)
	if err != nil {
		return fmt.Errorf("failed to render notification body: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To)
	m.SetHeader("Subject", fmt.Sprintf("Catalog version differences - %s", report.GeneratedAt.Format("2006-01-02")))
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	s.logger.Info("notification sent", "to", s.cfg.To, "differences", report.Total())
	return nil
}

func textBody(report Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Catalog Version Differences Report\n")
	fmt.Fprintf(&b, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Outdated: %d\n", len(report.Outdated))
	fmt.Fprintf(&b, "Missing: %d\n\n", len(report.Missing))
	b.WriteString(strings.Repeat("=", 70) + "\n\n")

	for _, m := range report.Outdated {
		fmt.Fprintf(&b, "Outdated: %s\n", m.RefName)
		fmt.Fprintf(&b, "  Reference version: %s\n", orNA(m.RefVersion))
		fmt.Fprintf(&b, "  Candidate version: %s\n", orNA(m.CandVersion))
		if m.CandURL != "" {
			fmt.Fprintf(&b, "  URL: %s\n", m.CandURL)
		}
		b.WriteString("\n")
	}
	for _, m := range report.Missing {
		fmt.Fprintf(&b, "Missing: %s\n", m.RefName)
		fmt.Fprintf(&b, "  Reference version: %s\n", orNA(m.RefVersion))
		if m.RefURL != "" {
			fmt.Fprintf(&b, "  URL: %s\n", m.RefURL)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

var reportTemplate = template.Must(template.New("report").Parse(reportHTML))

type templateData struct {
	Generated string
	Total     int
	Outdated  []models.Match
	Missing   []models.Match
}

func htmlBody(report Report) (string, error) {
	var b strings.Builder
	err := reportTemplate.Execute(&b, templateData{
		Generated: report.GeneratedAt.Format("2006-01-02 15:04:05"),
		Total:     report.Total(),
		Outdated:  report.Outdated,
		Missing:   report.Missing,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

const reportHTML = `<html>
<head>
<style>
body { font-family: Arial, sans-serif; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #4CAF50; color: white; }
tr:nth-child(even) { background-color: #f2f2f2; }
.header { background-color: #4CAF50; color: white; padding: 10px; }
.footer { margin-top: 20px; font-size: 12px; color: #666; }
</style>
</head>
<body>
<div class="header">
<h2>Catalog Version Differences Report</h2>
<p>Generated: {{.Generated}}</p>
<p>Total differences: {{.Total}}</p>
</div>
{{if .Outdated}}
<h3>Outdated</h3>
<table>
<tr><th>Name</th><th>Reference version</th><th>Candidate version</th><th>Link</th></tr>
{{range .Outdated}}
<tr>
<td>{{.RefName}}</td>
<td>{{if .RefVersion}}{{.RefVersion}}{{else}}N/A{{end}}</td>
<td>{{if .CandVersion}}{{.CandVersion}}{{else}}N/A{{end}}</td>
<td>{{if .CandURL}}<a href="{{.CandURL}}">view</a>{{end}}</td>
</tr>
{{end}}
</table>
{{end}}
{{if .Missing}}
<h3>Missing</h3>
<table>
<tr><th>Name</th><th>Reference version</th><th>Link</th></tr>
{{range .Missing}}
<tr>
<td>{{.RefName}}</td>
<td>{{if .RefVersion}}{{.RefVersion}}{{else}}N/A{{end}}</td>
<td>{{if .RefURL}}<a href="{{.RefURL}}">view</a>{{end}}</td>
</tr>
{{end}}
</table>
{{end}}
<div class="footer"><p>This is an automated report from plugindiff</p></div>
</body>
</html>
`
