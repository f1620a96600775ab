package service

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
	"time"

	"todolist/internal/core/port"
)

var verificationTemplate = template.Must(template.New("verification").Parse(`<p>Hi {{.Name}},</p>
<p>Please confirm your email address by opening the link below:</p>
<p><a href="{{.Link}}">Verify my email</a></p>
<p>The link expires in {{.Expiry}}.</p>`))

var otpTemplate = template.Must(template.New("otp").Parse(`<p>Hi {{.Name}},</p>
<p>Your password reset code is <strong>{{.Code}}</strong>.</p>
<p>It expires in {{.Expiry}}. If you did not ask for it, ignore this email.</p>`))

func verificationMail(to, name, baseURL, token string, ttl time.Duration) (port.Mail, error) {
	link := strings.TrimRight(baseURL, "/") + "/verify-email?token=" + url.QueryEscape(token)

	var body bytes.Buffer

	err := verificationTemplate.Execute(&body, map[string]string{
		"Name":   name,
		"Link":   link,
		"Expiry": ttl.String(),
	})

	if err != nil {
		return port.Mail{}, err
	}

	return port.Mail{To: to, Subject: "Verify your email", HTML: body.String()}, nil
}

func otpMail(to, name, code string, ttl time.Duration) (port.Mail, error) {
	var body bytes.Buffer

	err := otpTemplate.Execute(&body, map[string]string{
		"Name":   name,
		"Code":   code,
		"Expiry": ttl.Round(time.Second).String(),
	})

	if err != nil {
		return port.Mail{}, err
	}

	return port.Mail{To: to, Subject: "Your password reset code", HTML: body.String()}, nil
}
