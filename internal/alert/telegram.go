package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"holder-sentinel/internal/domain"
)

// TelegramChannel sends alerts as bot messages to a chat.
type TelegramChannel struct {
	botToken string
	chatID   string
	client   *http.Client
	baseURL  string
}

// NewTelegramChannel creates a telegram alert channel.
func NewTelegramChannel(botToken, chatID string) *TelegramChannel {
	return &TelegramChannel{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  "https://api.telegram.org",
	}
}

// Name implements Channel.
func (t *TelegramChannel) Name() string {
	return "telegram"
}

// Send implements Channel.
func (t *TelegramChannel) Send(ctx context.Context, a *domain.SellAlert) error {
	payload := map[string]string{
		"chat_id": t.chatID,
		"text":    formatAlertMessage(a),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status: %d", resp.StatusCode)
	}
	return nil
}

func formatAlertMessage(a *domain.SellAlert) string {
	return fmt.Sprintf(
		"SELL DETECTED\nToken: %s (%s)\nWallet: %s [%s]\nSold: %.4f (%.2f%% of balance)\nBalance: %.4f -> %.4f\nVenue: %s\nTx: %s",
		a.TokenAddress, a.Network,
		a.WalletAddress, a.WalletRole,
		a.AmountSold, a.ChangePercentage,
		a.PreviousBalance, a.NewBalance,
		a.CounterpartyVenue,
		a.TxSignature,
	)
}
