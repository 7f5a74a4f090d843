// Package whatsapp talks to an Evolution API gateway: outbound text messages
// plus the sender-identifier normalization the inbound webhook needs.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Sender interface {
	// SendText delivers one text message to a chat identifier. One network
	// call, no retries.
	SendText(ctx context.Context, number, text string) error
}

type Client struct {
	baseURL  string
	instance string
	apiKey   string
	http     *http.Client
}

func NewClient(baseURL, instance, apiKey string) *Client {
	return &Client{
		baseURL:  baseURL,
		instance: instance,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type sendTextRequest struct {
	Number  string      `json:"number"`
	Options sendOptions `json:"options"`
	Text    string      `json:"text"`
}

type sendOptions struct {
	Delay    int    `json:"delay"`
	Presence string `json:"presence"`
}

func (c *Client) SendText(ctx context.Context, number, text string) error {
	body, err := json.Marshal(sendTextRequest{
		Number: number,
		Options: sendOptions{
			Delay:    1200,
			Presence: "composing",
		},
		Text: text,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, c.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send text: gateway returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
