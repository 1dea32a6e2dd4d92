// Package mailer is the client for the outbound email vendor.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	From    string
}

func NewClient(baseURL, apiKey, from string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		BaseURL: baseURL,
		APIKey:  apiKey,
		From:    from,
	}
}

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

type sendRequest struct {
	From string `json:"from"`
	Message
}

type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) Send(ctx context.Context, m Message) error {
	jsonBody, err := json.Marshal(sendRequest{From: c.From, Message: m})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiResp sendResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return fmt.Errorf("mailer: failed to parse response: %v", err)
	}
	if !apiResp.Success {
		return fmt.Errorf("mailer: vendor error: %s", apiResp.Message)
	}
	return nil
}
