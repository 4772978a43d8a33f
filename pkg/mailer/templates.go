package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const welcomeSubject = "Your employee account is ready"

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<html>
<body>
    <p>Hello {{.FullName}},</p>
    <p>An account has been created for you on the employee portal.</p>
    <p>Sign in with your email address <strong>{{.Email}}</strong>{{if .TempPassword}} and the temporary password <strong>{{.TempPassword}}</strong>{{end}}.</p>
    <p>Please change your password after your first login.</p>
    <p><small>This is an automated message, do not reply.</small></p>
</body>
</html>
`))

const passwordResetSubject = "Your password has been reset"

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`
<html>
<body>
    <p>Hello {{.FullName}},</p>
    <p>An administrator has reset your password.</p>
    <p>Your temporary password is <strong>{{.TempPassword}}</strong>.</p>
    <p>Please change it after your next login.</p>
    <p><small>This is an automated message, do not reply.</small></p>
</body>
</html>
`))

// WelcomeMailData feeds the welcome template.
type WelcomeMailData struct {
	FullName     string
	Email        string
	TempPassword string
}

// RenderWelcome produces the subject and HTML body for the account-created mail.
func RenderWelcome(data WelcomeMailData) (string, string, error) {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render welcome mail: %w", err)
	}
	return welcomeSubject, buf.String(), nil
}

// PasswordResetMailData feeds the reset template.
type PasswordResetMailData struct {
	FullName     string
	TempPassword string
}

// RenderPasswordReset produces the subject and HTML body for the reset mail.
func RenderPasswordReset(data PasswordResetMailData) (string, string, error) {
	var buf bytes.Buffer
	if err := passwordResetTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render password reset mail: %w", err)
	}
	return passwordResetSubject, buf.String(), nil
}
