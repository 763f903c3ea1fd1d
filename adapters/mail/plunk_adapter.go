package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/config"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

type plunkMailer struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
	logger logger.Logger
}

func NewPlunkMailer(cfg config.Config, log logger.Logger) (service.Mailer, error) {
	if cfg.Mail.PlunkAPIKey == "" {
		return nil, fmt.Errorf("plunk api key is not configured")
	}
	return &plunkMailer{
		apiURL: cfg.Mail.PlunkAPIURL,
		apiKey: cfg.Mail.PlunkAPIKey,
		from:   cfg.Mail.From,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: log,
	}, nil
}

type plunkRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from,omitempty"`
}

func (m *plunkMailer) Send(ctx context.Context, msg service.Mail) error {
	payload, err := json.Marshal(plunkRequest{To: msg.To, Subject: msg.Subject, Body: msg.Body, From: m.from})
	if err != nil {
		return fmt.Errorf("marshal plunk request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build plunk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send plunk request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("plunk returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	m.logger.Info("Mail sent", zap.String("subject", msg.Subject))
	return nil
}

// LogMailer is used when no mail provider is configured.
type LogMailer struct {
	logger logger.Logger
}

func NewLogMailer(log logger.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

func (m *LogMailer) Send(_ context.Context, msg service.Mail) error {
	m.logger.Warn("Mail provider not configured, mail not sent", zap.String("subject", msg.Subject))
	return nil
}
