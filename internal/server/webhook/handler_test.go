package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/ermil/internal/logging"
	"github.com/dmitrijs2005/ermil/internal/server/dialog"
	"github.com/dmitrijs2005/ermil/internal/server/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoStepper appends every utterance to the state and replies with it.
type echoStepper struct {
	panicOn string
}

func (e *echoStepper) Step(ctx context.Context, s sessions.Session, utterance string, isNew bool) (sessions.Session, dialog.Reply) {
	if utterance == e.panicOn {
		panic("boom")
	}
	if isNew {
		s.State = ""
	}
	s.State += "/" + utterance
	return s, dialog.Reply{
		Text:    s.State,
		Buttons: []dialog.Button{{Title: "Отмена", Hide: true}},
		Card:    &dialog.Card{Type: dialog.CardBigImage, ImageID: "img", Title: "img", Description: "d\n1 2"},
	}
}

type turnCounter struct {
	turns []string
}

func (c *turnCounter) ObserveTurn(from, to string, d time.Duration) {
	c.turns = append(c.turns, from+">"+to)
}

type testServer struct {
	srv      *httptest.Server
	store    *sessions.MemoryStore
	observer *turnCounter
}

func newTestServer(t *testing.T, stepper Stepper) *testServer {
	t.Helper()
	store := sessions.NewMemoryStore(time.Minute)
	obs := &turnCounter{}
	h := NewHandler(stepper, sessions.NewManager(store), obs, logging.NewNop())
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ermil_up 1\n"))
	})

	srv := httptest.NewServer(NewRouter(h, metrics, logging.NewNop()))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, store: store, observer: obs}
}

func (ts *testServer) post(t *testing.T, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Post(ts.srv.URL+"/webhook", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp, out
}

func turnBody(sessionID, text string, isNew bool) string {
	req := map[string]any{
		"meta": map[string]any{"locale": "ru-RU"},
		"session": map[string]any{
			"session_id":  sessionID,
			"message_id":  1,
			"new":         isNew,
			"skill_id":    "skill-1",
			"application": map[string]any{"application_id": "app"},
		},
		"request": map[string]any{"original_utterance": text, "command": strings.ToLower(text), "type": "SimpleUtterance"},
		"version": "1.0",
	}
	b, _ := json.Marshal(req)
	return string(b)
}

func decodeBody(t *testing.T, raw json.RawMessage) responseBody {
	t.Helper()
	var body responseBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestWebhook_EchoesSessionAndVersion(t *testing.T) {
	ts := newTestServer(t, &echoStepper{})
	body := turnBody("s1", "Вход", true)

	resp, out := ts.post(t, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var in map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	assert.JSONEq(t, string(in["session"]), string(out["session"]))
	assert.JSONEq(t, `"1.0"`, string(out["version"]))

	got := decodeBody(t, out["response"])
	assert.Equal(t, "/Вход", got.Text)
	assert.False(t, got.EndSession)
	assert.Equal(t, []button{{Title: "Отмена", Hide: true}}, got.Buttons)
	require.NotNil(t, got.Card)
	assert.Equal(t, card{Type: "BigImage", ImageID: "img", Title: "img", Description: "d\n1 2"}, *got.Card)
}

func TestWebhook_SessionsAreIsolated(t *testing.T) {
	ts := newTestServer(t, &echoStepper{})

	ts.post(t, turnBody("a", "one", true))
	ts.post(t, turnBody("b", "other", true))
	_, out := ts.post(t, turnBody("a", "two", false))

	assert.Equal(t, "/one/two", decodeBody(t, out["response"]).Text)

	b, err := ts.store.Load(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "/other", b.State)
	assert.Equal(t, []string{">/one", ">/other", "/one>/one/two"}, ts.observer.turns)
}

func TestWebhook_PanicKeepsSession(t *testing.T) {
	ts := newTestServer(t, &echoStepper{panicOn: "explode"})

	ts.post(t, turnBody("s1", "one", true))
	resp, out := ts.post(t, turnBody("s1", "explode", false))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, textFailure, decodeBody(t, out["response"]).Text)
	assert.NotEmpty(t, out["session"])

	s, err := ts.store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "/one", s.State)
}

func TestWebhook_BadRequests(t *testing.T) {
	ts := newTestServer(t, &echoStepper{})

	for name, body := range map[string]string{
		"not json":      "{",
		"no session":    `{"request":{"original_utterance":"x"},"version":"1.0"}`,
		"no session id": `{"session":{"new":true},"request":{},"version":"1.0"}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(ts.srv.URL+"/webhook", "application/json", bytes.NewBufferString(body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestWebhook_DefaultVersion(t *testing.T) {
	ts := newTestServer(t, &echoStepper{})

	_, out := ts.post(t, `{"session":{"session_id":"s1","new":true},"request":{"original_utterance":"x"}}`)
	assert.JSONEq(t, `"1.0"`, string(out["version"]))
}

func TestPingAndMetrics(t *testing.T) {
	ts := newTestServer(t, &echoStepper{})

	resp, err := http.Get(ts.srv.URL + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	resp, err = http.Get(ts.srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "ermil_up 1")
}

func TestEncodeReply_OmitsEmpty(t *testing.T) {
	b, err := json.Marshal(encodeReply(dialog.Reply{Text: "hi"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi","end_session":false}`, string(b))
}
