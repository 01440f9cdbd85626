package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"lostfound/internal/models"
)

// Mailer delivers account verification tokens.
type Mailer interface {
	SendVerification(ctx context.Context, user *models.User, token string) error
}

// LogMailer writes the verification link to the log instead of sending mail.
type LogMailer struct {
	logger  *slog.Logger
	baseURL string
}

func NewLogMailer(logger *slog.Logger, baseURL string) *LogMailer {
	return &LogMailer{logger: logger, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (m *LogMailer) SendVerification(ctx context.Context, user *models.User, token string) error {
	m.logger.InfoContext(ctx, "verification mail",
		slog.String("to", user.Email),
		slog.String("link", VerificationLink(m.baseURL, token)),
	)
	return nil
}

func VerificationLink(baseURL, token string) string {
	return baseURL + "/auth/verify?token=" + url.QueryEscape(token)
}
