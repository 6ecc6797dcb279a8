// Package platform talks to the chat platform's HTTP API: member
// profiles and reply delivery. Webhook envelope parsing lives with the
// bot service; this package only makes outbound calls.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"group-order-bot/internal/config"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/models"
)

// Client calls the chat platform API with the channel token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a platform API client.
func NewClient(cfg config.PlatformConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.APIBaseURL,
		token:   cfg.ChannelToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: log,
	}
}

type profileResponse struct {
	DisplayName string `json:"displayName"`
}

// DisplayName fetches a user's display name, using the group member
// profile endpoint when a group id is given.
func (c *Client) DisplayName(ctx context.Context, userID, groupID string) (string, error) {
	url := fmt.Sprintf("%s/v2/bot/profile/%s", c.baseURL, userID)
	if groupID != "" {
		url = fmt.Sprintf("%s/v2/bot/group/%s/member/%s", c.baseURL, groupID, userID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("profile request returned status %d", resp.StatusCode)
	}

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("failed to decode profile response: %w", err)
	}

	return profile.DisplayName, nil
}

type replyAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

type quickReplyItem struct {
	Type   string      `json:"type"`
	Action replyAction `json:"action"`
}

type quickReply struct {
	Items []quickReplyItem `json:"items"`
}

type textMessage struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	QuickReply *quickReply `json:"quickReply,omitempty"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

// ReplyMessage delivers a reply to the chat surface, attaching the
// reply's suggestions as quick-reply buttons.
func (c *Client) ReplyMessage(ctx context.Context, replyToken string, reply models.Reply) error {
	msg := textMessage{Type: "text", Text: reply.Text}
	if len(reply.Suggestions) > 0 {
		qr := &quickReply{}
		for _, s := range reply.Suggestions {
			qr.Items = append(qr.Items, quickReplyItem{
				Type:   "action",
				Action: replyAction{Type: "message", Label: truncateLabel(s), Text: s},
			})
		}
		msg.QuickReply = qr
	}

	body, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []textMessage{msg},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	url := c.baseURL + "/v2/bot/message/reply"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build reply request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reply request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reply request returned status %d", resp.StatusCode)
	}

	return nil
}

// truncateLabel keeps quick-reply labels within the platform's 20
// character limit.
func truncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= 20 {
		return s
	}
	return string(runes[:20])
}
