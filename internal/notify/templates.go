package notify

import (
	"bytes"
	"html/template"
	"strings"

	"careercraft/internal/database"
)

const (
	TypeRegistration      = "registration"
	TypeApplicationStatus = "application_status"
)

var welcomeTemplate = template.Must(template.New("welcome").Parse(
	`<h1>Welcome to CareerCraft!</h1>
<p>Dear {{.FirstName}},</p>
<p>Thank you for registering as a {{.Role}}. Your account has been created successfully.</p>
<p>You can now log in and start using our platform.</p>
<br><p>Best regards,<br>The CareerCraft Team</p>`))

var statusTemplate = template.Must(template.New("status").Parse(
	`<p>Dear {{.FirstName}},</p>
<p>Your application for <strong>{{.JobTitle}}</strong> is now <strong>{{.Status}}</strong>.</p>
{{if .Notes}}<p>Note from the employer: {{.Notes}}</p>{{end}}
<br><p>Best regards,<br>The CareerCraft Team</p>`))

// WelcomeMessage 构造注册欢迎邮件。
func WelcomeMessage(account database.Account) Message {
	return Message{
		AccountID: account.ID,
		Email:     account.Email,
		Subject:   "Welcome to CareerCraft",
		Body:      render(welcomeTemplate, map[string]string{"FirstName": account.FirstName, "Role": account.Role}),
		Type:      TypeRegistration,
	}
}

// StatusMessage 构造投递状态变更邮件。
func StatusMessage(student database.Account, jobTitle, status, notes string) Message {
	return Message{
		AccountID: student.ID,
		Email:     student.Email,
		Subject:   "Your application for " + jobTitle + " was " + status,
		Body: render(statusTemplate, map[string]string{
			"FirstName": student.FirstName,
			"JobTitle":  jobTitle,
			"Status":    status,
			"Notes":     strings.TrimSpace(notes),
		}),
		Type: TypeApplicationStatus,
	}
}

func render(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}
