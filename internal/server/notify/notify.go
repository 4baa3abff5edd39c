// Package notify renders password-recovery emails and hands them to a
// delivery sink. Actual mail transport lives outside this service: the S3
// outbox stores rendered messages for a mailer to pick up, and the log sink
// is used in development.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

//go:embed templates/*.html
var templates embed.FS

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers rendered messages.
type Notifier interface {
	Send(ctx context.Context, msg *Message) error
}

type resetData struct {
	ProjectName string
	Username    string
	Email       string
	ValidHours  int
	Link        string
}

// Renderer builds password-reset messages pointing at the frontend.
type Renderer struct {
	projectName  string
	frontendHost string
	validFor     time.Duration
	tmpl         *template.Template
}

func NewRenderer(projectName, frontendHost string, validFor time.Duration) (*Renderer, error) {
	tmpl, err := template.ParseFS(templates, "templates/reset_password.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{
		projectName:  projectName,
		frontendHost: strings.TrimRight(frontendHost, "/"),
		validFor:     validFor,
		tmpl:         tmpl,
	}, nil
}

// PasswordReset renders the recovery email carrying token for email.
func (r *Renderer) PasswordReset(email, token string) (*Message, error) {
	data := resetData{
		ProjectName: r.projectName,
		Username:    email,
		Email:       email,
		ValidHours:  int(r.validFor / time.Hour),
		Link:        r.frontendHost + "/reset-password?token=" + url.QueryEscape(token),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render reset email: %w", err)
	}

	return &Message{
		To:      email,
		Subject: fmt.Sprintf("%s - Password recovery for user %s", r.projectName, email),
		HTML:    buf.String(),
	}, nil
}
