package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client posts to a SendGrid-compatible mail endpoint.
type Client struct {
	client *http.Client
	url    string
	token  string
}

func NewClient(url, token string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		url:   url,
		token: token,
	}
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	TemplateID       string            `json:"template_id"`
	ASM              *asm              `json:"asm,omitempty"`
}

type personalization struct {
	To   []emailAddress `json:"to"`
	Data map[string]any `json:"dynamic_template_data,omitempty"`
}

type emailAddress struct {
	Email string `json:"email"`
}

type asm struct {
	GroupID int `json:"group_id"`
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	payload := sendRequest{
		Personalizations: []personalization{
			{To: []emailAddress{{Email: msg.To}}, Data: msg.Data},
		},
		From:       emailAddress{Email: msg.From},
		TemplateID: msg.TemplateID,
	}
	if msg.UnsubscribeGroup != 0 {
		payload.ASM = &asm{GroupID: msg.UnsubscribeGroup}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("mail_api_error: status=%d", resp.StatusCode)
	}
	return nil
}
