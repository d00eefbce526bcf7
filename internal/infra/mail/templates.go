package mail

import (
	"bytes"
	"html/template"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	verificationSubject = "Verify your email address"
	welcomeSubject      = "Welcome!"
)

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Verify Your Email</title></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f5f5f5; padding: 40px 20px;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; padding: 40px;">
    <h1 style="color: #333333; font-size: 28px;">Verify Your Email</h1>
    <p style="color: #666666; font-size: 16px;">Hello <strong>{{.Name}}</strong>,</p>
    <p style="color: #666666; font-size: 16px;">Thanks for signing up! Please verify your email address by clicking the button below:</p>
    <p style="text-align: center;">
      <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #0066cc; color: #ffffff; text-decoration: none; border-radius: 6px;">Verify Email Address</a>
    </p>
    <p style="color: #999999; font-size: 14px;">Or copy and paste this link:</p>
    <p style="word-break: break-all;"><a href="{{.Link}}" style="color: #0066cc;">{{.Link}}</a></p>
    <p style="color: #999999; font-size: 14px;">This link will expire in {{.ExpiresIn}}.</p>
    <p style="color: #999999; font-size: 12px; text-align: center; border-top: 1px solid #e5e5e5; padding-top: 20px;">&copy; {{.Year}}</p>
  </div>
</body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Welcome!</title></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f5f5f5; padding: 40px 20px;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; padding: 40px;">
    <h1 style="color: #333333; font-size: 28px;">Welcome, {{.Name}}!</h1>
    <p style="color: #666666; font-size: 16px;">Your email has been verified successfully!</p>
    <p style="text-align: center;">
      <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #0066cc; color: #ffffff; text-decoration: none; border-radius: 6px;">Get Started</a>
    </p>
    <p style="color: #999999; font-size: 12px; text-align: center; border-top: 1px solid #e5e5e5; padding-top: 20px;">&copy; {{.Year}}</p>
  </div>
</body>
</html>`))

type templateData struct {
	Name      string
	Link      string
	ExpiresIn string
	Year      int
}

func render(tmpl *template.Template, data templateData) (string, error) {
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "render %s email", tmpl.Name())
	}

	return buf.String(), nil
}

// humanizeTTL renders whole hours the way the email copy states them.
func humanizeTTL(ttl time.Duration) string {
	hours := int(ttl.Hours())
	switch {
	case hours == 1:
		return "1 hour"
	case hours > 1:
		return strconv.Itoa(hours) + " hours"
	default:
		return ttl.String()
	}
}
