package webhook

import (
	"encoding/json"

	"github.com/dmitrijs2005/ermil/internal/server/dialog"
)

// request is a Yandex Dialogs webhook call. Session and Version are kept
// raw so they can be echoed back byte for byte.
type request struct {
	Session json.RawMessage `json:"session"`
	Request struct {
		OriginalUtterance string `json:"original_utterance"`
		Command           string `json:"command"`
		Type              string `json:"type"`
	} `json:"request"`
	Version json.RawMessage `json:"version"`
}

type sessionInfo struct {
	SessionID string `json:"session_id"`
	MessageID int    `json:"message_id"`
	New       bool   `json:"new"`
}

type response struct {
	Session  json.RawMessage `json:"session"`
	Version  json.RawMessage `json:"version"`
	Response responseBody    `json:"response"`
}

type responseBody struct {
	Text       string   `json:"text"`
	Buttons    []button `json:"buttons,omitempty"`
	Card       *card    `json:"card,omitempty"`
	EndSession bool     `json:"end_session"`
}

type button struct {
	Title string `json:"title"`
	Hide  bool   `json:"hide"`
}

type card struct {
	Type        string `json:"type"`
	ImageID     string `json:"image_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var defaultVersion = json.RawMessage(`"1.0"`)

func encodeReply(r dialog.Reply) responseBody {
	body := responseBody{Text: r.Text}

	for _, b := range r.Buttons {
		body.Buttons = append(body.Buttons, button{Title: b.Title, Hide: b.Hide})
	}

	if r.Card != nil {
		body.Card = &card{
			Type:        r.Card.Type,
			ImageID:     r.Card.ImageID,
			Title:       r.Card.Title,
			Description: r.Card.Description,
		}
	}

	return body
}
