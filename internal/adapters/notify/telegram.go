package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	defaultTimeout = 10 * time.Second
)

// Telegram implements ports.Notifier against the Telegram Bot API
// sendMessage call. Delivery is best effort; callers treat failures as
// warnings, never as write failures.
type Telegram struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
	logger  ports.Logger
}

// Config holds configuration specific to the Telegram notifier adapter.
type Config struct {
	Token   string
	ChatID  string
	APIBase string        // override for tests; defaults to the Bot API
	Timeout time.Duration // per-request timeout (e.g., 10 * time.Second)
	Logger  ports.Logger
}

// New creates a new Telegram notifier adapter.
func New(cfg Config) (*Telegram, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Telegram notifier")
	}
	if cfg.Token == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram token and chat ID are required: %w", ports.ErrConfigurationError)
	}

	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Telegram{
		token:   cfg.Token,
		chatID:  cfg.ChatID,
		apiBase: apiBase,
		client:  &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}, nil
}

// NotifyClose announces a newly recorded trade.
func (t *Telegram) NotifyClose(ctx context.Context, trade *domain.ClosedTrade) error {
	text := fmt.Sprintf("%s Ledger: %s %s closed (%s). Qty: %s, Entry: %s, Exit: %s",
		sideColor(trade.Side), trade.Symbol, trade.Side, trade.Reason,
		num(trade.Quantity), num(trade.EntryPrice), num(trade.ExitPrice))
	if trade.StopPrice != 0 {
		text += ", SL=" + num(trade.StopPrice)
	}
	if trade.TakePrice != 0 {
		text += ", TP=" + num(trade.TakePrice)
	}
	text += fmt.Sprintf(", RR=%.2f [%s]", trade.RR, trade.ID)
	return t.send(ctx, text)
}

// NotifyAmendment announces a correction to a recorded trade.
func (t *Telegram) NotifyAmendment(ctx context.Context, trade *domain.ClosedTrade, am *domain.Amendment) error {
	text := fmt.Sprintf("✏️ Ledger: %s amended [%s]. Exit: %s → %s, Reason: %s → %s, RR: %.2f → %.2f",
		trade.Symbol, trade.ID,
		num(am.Prior.ExitPrice), num(am.Corrected.ExitPrice),
		am.Prior.Reason, am.Corrected.Reason,
		am.Prior.RR, am.Corrected.RR)
	if am.Note != "" {
		text += ". Note: " + am.Note
	}
	return t.send(ctx, text)
}

// send performs the sendMessage POST. Non-2xx responses and transport
// failures both come back wrapped in ErrNotifyFailed.
func (t *Telegram) send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("failed to encode telegram message: %v: %w", err, ports.ErrNotifyFailed)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %v: %w", err, ports.ErrNotifyFailed)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %v: %w", err, ports.ErrNotifyFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a little of the body for the log; Telegram explains
		// rejections in it.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		t.logger.Warn(ctx, "Telegram rejected message", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(detail),
		})
		return fmt.Errorf("telegram responded %d: %w", resp.StatusCode, ports.ErrNotifyFailed)
	}
	return nil
}

// sideColor mirrors the marker convention the trading desk already reads:
// green for longs, red for shorts.
func sideColor(side domain.Side) string {
	if side == domain.Short {
		return "🔴"
	}
	return "🟢"
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
