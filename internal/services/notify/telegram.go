package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/httpclient"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"golang.org/x/time/rate"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramMessenger delivers messages and documents through the
// Telegram Bot API. Requests are rate limited so a multi-chunk fan-out
// stays under the Bot API's per-second ceiling.
type TelegramMessenger struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	logger  arbor.ILogger
}

var _ interfaces.Messenger = (*TelegramMessenger)(nil)

func NewTelegramMessenger(config *common.TelegramConfig, logger arbor.ILogger) *TelegramMessenger {
	baseURL := config.APIBaseURL
	if baseURL == "" {
		baseURL = telegramAPIBase
	}

	timeout, err := time.ParseDuration(config.SendTimeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}

	perSec := config.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}

	return &TelegramMessenger{
		baseURL: baseURL,
		token:   config.Token,
		client:  httpclient.NewDefaultHTTPClient(timeout),
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		logger:  logger,
	}
}

// SendMessage posts one text message to a chat
func (m *TelegramMessenger) SendMessage(ctx context.Context, chatID, text string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.endpoint("sendMessage"), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if err := m.do(req); err != nil {
		return err
	}

	m.logger.Debug().
		Str("chat_id", chatID).
		Int("chars", len(text)).
		Msg("Telegram message sent")
	return nil
}

// SendDocument uploads a file attachment to a chat
func (m *TelegramMessenger) SendDocument(ctx context.Context, chatID, filename string, content []byte, caption string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", chatID); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("failed to build upload: %w", err)
		}
	}

	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.endpoint("sendDocument"), &body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if err := m.do(req); err != nil {
		return err
	}

	m.logger.Debug().
		Str("chat_id", chatID).
		Str("filename", filename).
		Int("bytes", len(content)).
		Msg("Telegram document sent")
	return nil
}

func (m *TelegramMessenger) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", m.baseURL, m.token, method)
}

func (m *TelegramMessenger) do(req *http.Request) error {
	resp, err := m.client.Do(req)
	if err != nil {
		return models.Transient("telegram", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("telegram API returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return models.Transient("telegram", err)
	}
	return err
}
