package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

type Button struct {
	Title string `json:"title"`
	Hide  bool   `json:"hide"`
}

type Card struct {
	Type        string `json:"type"`
	ImageID     string `json:"image_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Reply struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons"`
	Card    *Card    `json:"card"`
}

type turnSession struct {
	SessionID string `json:"session_id"`
	MessageID int    `json:"message_id"`
	New       bool   `json:"new"`
}

type turnRequest struct {
	Session turnSession `json:"session"`
	Request struct {
		OriginalUtterance string `json:"original_utterance"`
		Command           string `json:"command"`
		Type              string `json:"type"`
	} `json:"request"`
	Version string `json:"version"`
}

type turnResponse struct {
	Response Reply `json:"response"`
}

// Client holds one conversation with the webhook. The first turn is sent
// with session.new set.
type Client struct {
	url        string
	httpClient *http.Client
	sessionID  string
	messageID  int
}

func NewClient(url string, httpClient *http.Client) *Client {
	return &Client{
		url:        url,
		httpClient: httpClient,
		sessionID:  uuid.NewString(),
	}
}

func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) Turn(ctx context.Context, utterance string) (*Reply, error) {
	var in turnRequest
	in.Session = turnSession{SessionID: c.sessionID, MessageID: c.messageID, New: c.messageID == 0}
	in.Request.OriginalUtterance = utterance
	in.Request.Command = utterance
	in.Request.Type = "SimpleUtterance"
	in.Version = "1.0"

	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out turnResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}

	c.messageID++
	return &out.Response, nil
}
