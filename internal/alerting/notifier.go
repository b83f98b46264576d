package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EventKind tags the lifecycle events worth announcing.
type EventKind string

const (
	EventClaimConfirmed     EventKind = "claim_confirmed"
	EventConversionComplete EventKind = "conversion_complete"
	EventConversionFailed   EventKind = "conversion_failed"
)

// Event 封装一次生命周期通知。
type Event struct {
	Kind          EventKind
	TxID          string
	Account       string
	TokenSymbol   string
	DisplayAmount string
	At            time.Time
}

// Notifier delivers lifecycle events to an external channel.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 通知器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "notify_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(event),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Str("kind", string(event.Kind)).
		Str("tx_id", event.TxID).
		Msg("通知已发送 (Telegram)")
	return nil
}

func renderMessage(event Event) string {
	builder := strings.Builder{}
	builder.WriteString("[mUSD Rewards]\n")
	switch event.Kind {
	case EventClaimConfirmed:
		builder.WriteString("Reward claim confirmed\n")
	case EventConversionComplete:
		builder.WriteString("Conversion completed\n")
	case EventConversionFailed:
		builder.WriteString("Conversion failed\n")
	}
	builder.WriteString(fmt.Sprintf("Tx: %s\n", event.TxID))
	if event.Account != "" {
		builder.WriteString(fmt.Sprintf("Account: %s\n", event.Account))
	}
	if event.TokenSymbol != "" {
		builder.WriteString(fmt.Sprintf("Token: %s\n", event.TokenSymbol))
	}
	if event.DisplayAmount != "" {
		builder.WriteString(fmt.Sprintf("Unclaimed: %s\n", event.DisplayAmount))
	}
	if !event.At.IsZero() {
		builder.WriteString(fmt.Sprintf("At: %s UTC\n", event.At.UTC().Format(time.RFC3339)))
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
