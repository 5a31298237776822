package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"PixelSentinel/internal/transport"
)

const defaultAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers alerts and reports to one chat through the Bot API
// and answers commands from the same chat.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	Client   *http.Client
	APIBase  string

	// PollTimeout is the getUpdates long-poll wait in seconds.
	PollTimeout int
}

// NewTelegramNotifier creates a notifier. proxyURL accepts the same schemes as account proxies;
// an unusable proxy is logged and the notifier connects directly.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	tr := &http.Transport{}
	if u, err := transport.ParseProxy(proxyURL); err != nil {
		log.Printf("[WARN] telegram proxy ignored: %v", err)
	} else if u != nil {
		tr.Proxy = http.ProxyURL(u)
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		Client: &http.Client{
			Timeout:   transport.DefaultTimeout,
			Transport: tr,
		},
		APIBase: defaultAPIBase,
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	base := t.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	return fmt.Sprintf("%s/bot%s/%s", base, t.BotToken, method)
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send posts text to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	return t.send(context.Background(), text)
}

// Notify sends one alert without retrying.
func (t *TelegramNotifier) Notify(ctx context.Context, text string) error {
	return t.send(ctx, text)
}

func (t *TelegramNotifier) send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: t.ChatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, detail)
	}
	return nil
}

// SendWithRetry retries a failed send with exponential backoff (1s, 2s, 4s...).
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = t.send(ctx, text)
		if lastErr == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		backoff := time.Second << uint(attempt)
		log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", attempt+1, maxRetries+1, lastErr, backoff)
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}
