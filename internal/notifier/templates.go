package notifier

import (
	"strings"
	"text/template"
)

const timeLayout = "Mon, 02 Jan 2006 15:04 MST"

type mailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(name, subject, body string) mailTemplate {
	funcs := template.FuncMap{"when": func(t interface{ Format(string) string }) string { return t.Format(timeLayout) }}
	return mailTemplate{
		subject: template.Must(template.New(name + ".subject").Funcs(funcs).Parse(subject)),
		body:    template.Must(template.New(name + ".body").Funcs(funcs).Parse(strings.TrimSpace(body) + "\n")),
	}
}

func (t mailTemplate) render(data any) (string, string, error) {
	var subject, body strings.Builder
	if err := t.subject.Execute(&subject, data); err != nil {
		return "", "", err
	}
	if err := t.body.Execute(&body, data); err != nil {
		return "", "", err
	}
	return subject.String(), body.String(), nil
}

var (
	welcomeTemplate = mustTemplate("welcome",
		`Welcome to TutorHub, {{.User.Name}}`, `
Hi {{.User.Name}},

Your {{.Role}} account is ready.{{if eq .Role "tutor"}} Complete your tutor profile so an admin can review it.{{end}}
`)

	passwordResetTemplate = mustTemplate("password_reset",
		`Reset your password`, `
Hi {{.User.Name}},

Someone asked to reset the password of your account. Use the link below before {{when .ExpiresAt}}:

{{.ResetURL}}

If it wasn't you, you can ignore this message.
`)

	bookingCreatedTemplate = mustTemplate("booking_created",
		`New booking request for {{.Subject}}`, `
Hi {{.Tutor.Name}},

{{.Student.Name}} requested a {{.Subject}} session on {{when .StartTime}}.
Approve or reject it from your dashboard.
`)

	bookingApprovedTemplate = mustTemplate("booking_approved",
		`Your {{.Subject}} session is confirmed`, `
Hi {{.Student.Name}},

{{.Tutor.Name}} approved your {{.Subject}} session on {{when .StartTime}}.{{if .MeetingLink}}
Join here: {{.MeetingLink}}{{end}}
`)

	bookingRejectedTemplate = mustTemplate("booking_rejected",
		`Your {{.Subject}} booking was declined`, `
Hi {{.Student.Name}},

{{.Tutor.Name}} could not take your {{.Subject}} session on {{when .StartTime}}.{{if .Reason}}
Reason: {{.Reason}}{{end}}
`)

	bookingCancelledTemplate = mustTemplate("booking_cancelled",
		`{{.Subject}} session cancelled`, `
Hi {{.Recipient.Name}},

The {{.Subject}} session on {{when .StartTime}} was cancelled by {{.Actor.Name}}.{{if .Reason}}
Reason: {{.Reason}}{{end}}
`)

	bookingCompletedTemplate = mustTemplate("booking_completed",
		`How was your {{.Subject}} session?`, `
Hi {{.Student.Name}},

Your session with {{.Tutor.Name}} is complete. Leave a review to help other students.
`)

	tutorApprovedTemplate = mustTemplate("tutor_approved",
		`Your tutor profile is live`, `
Hi {{.Tutor.Name}},

Your profile was approved and students can now book you.
`)

	tutorRejectedTemplate = mustTemplate("tutor_rejected",
		`Your tutor profile needs changes`, `
Hi {{.Tutor.Name}},

Your profile was not approved.{{if .Reason}}
Reason: {{.Reason}}{{end}}
Update it and it will be reviewed again.
`)

	reviewCreatedTemplate = mustTemplate("review_created",
		`New {{.Rating}}-star review`, `
Hi {{.Tutor.Name}},

{{.Student.Name}} rated a session {{.Rating}}/5.{{if .Comment}}
"{{.Comment}}"{{end}}
`)
)
