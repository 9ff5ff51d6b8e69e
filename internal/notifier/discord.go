package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"quickcap/internal/model"
)

const (
	colorLong  = 0x13A10E
	colorShort = 0xC50F1F
)

// DiscordNotifier posts signal embeds to a Discord webhook. An empty webhook
// URL disables it: running without notifications is fine in dev.
type DiscordNotifier struct {
	WebhookURL string
	Client     *http.Client
}

// NewDiscordNotifier creates a notifier for the given webhook URL.
func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Fields      []embedField `json:"fields"`
	Footer      struct {
		Text string `json:"text"`
	} `json:"footer"`
}

// PostSignal sends a signal embed. Notification failures must never affect
// scanning, so callers log the returned error and move on.
func (d *DiscordNotifier) PostSignal(ctx context.Context, sig *model.Signal) error {
	if d.WebhookURL == "" {
		return nil
	}

	color := colorShort
	if sig.Side == model.SideLong {
		color = colorLong
	}
	description := "—"
	if len(sig.Triggers) > 0 {
		description = strings.Join(sig.Triggers, " • ")
	}
	venue := sig.Venue
	if sig.Type == model.SignalBasis {
		venue += ":BASIS"
	}

	e := embed{
		Title:       fmt.Sprintf("%s • %s", sig.Symbol, sig.Side),
		Description: description,
		Color:       color,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Fields: []embedField{
			{Name: "Exchange", Value: venue, Inline: true},
			{Name: "Interval", Value: sig.Interval, Inline: true},
			{Name: "Price", Value: fmt.Sprintf("%g", sig.Price), Inline: true},
			{Name: "VWAP", Value: fmt.Sprintf("%g", sig.VWAP), Inline: true},
			{Name: "RSI", Value: fmt.Sprintf("%.1f", sig.RSI), Inline: true},
			{Name: "Score", Value: fmt.Sprintf("%.3f", sig.Score), Inline: true},
		},
	}
	if sig.Type == model.SignalBasis {
		e.Fields = append(e.Fields,
			embedField{Name: "Basis %", Value: fmt.Sprintf("%.4f", sig.BasisPct), Inline: true},
			embedField{Name: "Basis Z", Value: fmt.Sprintf("%.3f", sig.BasisZ), Inline: true},
		)
	}
	e.Footer.Text = fmt.Sprintf("%s:%s:%s", sig.Venue, sig.Symbol, sig.Interval)

	return d.post(ctx, map[string]interface{}{"embeds": []embed{e}})
}

// PostSummary sends a plain-text content message (backfill/run summaries).
func (d *DiscordNotifier) PostSummary(ctx context.Context, content string) error {
	if d.WebhookURL == "" {
		return nil
	}
	if len(content) > 1990 {
		content = content[:1990]
	}
	return d.post(ctx, map[string]interface{}{"content": content})
}

func (d *DiscordNotifier) post(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// TrySignal posts a signal embed and logs any failure without propagating it.
func (d *DiscordNotifier) TrySignal(ctx context.Context, sig *model.Signal) {
	if err := d.PostSignal(ctx, sig); err != nil {
		log.Warn().Err(err).Str("symbol", sig.Symbol).Msg("discord notification failed")
	}
}

// TrySummary posts a summary message and logs any failure without
// propagating it.
func (d *DiscordNotifier) TrySummary(ctx context.Context, content string) {
	if err := d.PostSummary(ctx, content); err != nil {
		log.Warn().Err(err).Msg("discord summary failed")
	}
}
