package mailer

import (
	"fmt"
	"html/template"
	"strings"
)

var (
	otpTemplate = template.Must(template.New("otp").Parse(`
<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2>Password reset code</h2>
  <p>Hi {{.Name}},</p>
  <p>Use the code below to reset your Speshway account password. It expires in {{.Minutes}} minutes.</p>
  <p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{.Code}}</p>
  <p>If you did not request this, you can safely ignore this email.</p>
</div>`))

	contactTemplate = template.Must(template.New("contact").Parse(`
<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2>New {{.Kind}} submission</h2>
  <p><b>Name:</b> {{.Name}}</p>
  <p><b>Email:</b> {{.Email}}</p>
  {{if .Phone}}<p><b>Phone:</b> {{.Phone}}</p>{{end}}
  {{if .Subject}}<p><b>Subject:</b> {{.Subject}}</p>{{end}}
  <p><b>Message:</b></p>
  <p>{{.Message}}</p>
  {{if .ResumeURL}}<p><b>Resume:</b> <a href="{{.ResumeURL}}">{{.ResumeName}}</a></p>{{end}}
</div>`))

	replyTemplate = template.Must(template.New("reply").Parse(`
<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2>Re: {{.Subject}}</h2>
  <p>Hi {{.Name}},</p>
  <p>{{.Message}}</p>
  <p>Regards,<br>Speshway Solutions</p>
</div>`))
)

// OTPData feeds the password-reset email.
type OTPData struct {
	Name    string
	Code    string
	Minutes int
}

// ContactData feeds the internal submission notification.
type ContactData struct {
	Kind       string
	Name       string
	Email      string
	Phone      string
	Subject    string
	Message    string
	ResumeURL  string
	ResumeName string
}

// ReplyData feeds the reply email sent back to a submitter.
type ReplyData struct {
	Name    string
	Subject string
	Message string
}

// OTPBody renders the password-reset message.
func OTPBody(data OTPData) (string, error) {
	return render(otpTemplate, data)
}

// ContactBody renders the submission notification message.
func ContactBody(data ContactData) (string, error) {
	return render(contactTemplate, data)
}

// ReplyBody renders the reply message.
func ReplyBody(data ReplyData) (string, error) {
	return render(replyTemplate, data)
}

func render(tpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", tpl.Name(), err)
	}
	return buf.String(), nil
}
