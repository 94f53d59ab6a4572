package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hamed0406/sitemonitor/internal/domain"
)

const (
	colorDown      = 15158332 // red
	colorRecovered = 3066993  // green
)

type Discord struct {
	Webhook string
	Client  *http.Client
}

func NewDiscord(webhook string) *Discord {
	return &Discord{
		Webhook: webhook,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type discordField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type discordEmbed struct {
	Title  string         `json:"title"`
	Color  int            `json:"color"`
	Fields []discordField `json:"fields"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func embedFor(a Alert) discordEmbed {
	color := colorDown
	if a.Kind == domain.TransitionRecovered {
		color = colorRecovered
	}
	return discordEmbed{
		Title: a.Title(),
		Color: color,
		Fields: []discordField{
			{Name: "Product", Value: a.Slug()},
			{Name: "Status", Value: a.StatusText()},
		},
	}
}

func (d *Discord) Send(ctx context.Context, a Alert) error {
	body, err := json.Marshal(discordPayload{Embeds: []discordEmbed{embedFor(a)}})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	return nil
}
