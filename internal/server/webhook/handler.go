// Package webhook is the HTTP face of the skill: the Dialogs webhook,
// a liveness probe and the metrics endpoint.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/ermil/internal/logging"
	"github.com/dmitrijs2005/ermil/internal/server/dialog"
	"github.com/dmitrijs2005/ermil/internal/server/sessions"
)

const maxBodySize = 64 << 10

const textFailure = "Что-то пошло не так, попробуйте еще раз"

// Stepper advances a conversation by one turn.
type Stepper interface {
	Step(ctx context.Context, sess sessions.Session, utterance string, isNew bool) (sessions.Session, dialog.Reply)
}

type TurnObserver interface {
	ObserveTurn(from, to string, d time.Duration)
}

type Handler struct {
	machine  Stepper
	sessions *sessions.Manager
	observer TurnObserver
	log      logging.Logger
}

func NewHandler(machine Stepper, sm *sessions.Manager, observer TurnObserver, log logging.Logger) *Handler {
	return &Handler{
		machine:  machine,
		sessions: sm,
		observer: observer,
		log:      log.With("module", "webhook"),
	}
}

var errTurnPanicked = errors.New("turn panicked")

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var info sessionInfo
	if len(req.Session) == 0 || json.Unmarshal(req.Session, &info) != nil || info.SessionID == "" {
		respondError(w, http.StatusBadRequest, "session.session_id is required")
		return
	}

	version := req.Version
	if len(version) == 0 {
		version = defaultVersion
	}

	ctx := r.Context()
	start := time.Now()

	var (
		reply    dialog.Reply
		from, to string
	)
	err := h.sessions.Do(ctx, info.SessionID, func(ctx context.Context, s *sessions.Session) error {
		from = s.State
		next, rep, err := h.step(ctx, *s, req.Request.OriginalUtterance, info.New)
		if err != nil {
			return err
		}
		*s = next
		to = next.State
		reply = rep
		return nil
	})
	if err != nil {
		h.log.Error(ctx, "turn failed", "session_id", info.SessionID, "error", err)
		reply = dialog.Reply{Text: textFailure}
		to = from
	}

	elapsed := time.Since(start)
	if h.observer != nil {
		h.observer.ObserveTurn(from, to, elapsed)
	}
	h.log.Info(ctx, "turn",
		"session_id", info.SessionID,
		"message_id", info.MessageID,
		"from", from,
		"to", to,
		"duration", elapsed,
	)

	respondJSON(w, http.StatusOK, response{
		Session:  req.Session,
		Version:  version,
		Response: encodeReply(reply),
	})
}

// step runs the state machine and turns a panic into an error so the
// session is left as it was.
func (h *Handler) step(ctx context.Context, s sessions.Session, utterance string, isNew bool) (next sessions.Session, reply dialog.Reply, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", errTurnPanicked, p)
		}
	}()

	next, reply = h.machine.Step(ctx, s, utterance, isNew)
	return next, reply, nil
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}
