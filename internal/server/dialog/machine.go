// Package dialog is the conversation state machine. Each turn classifies
// the utterance, looks up the transition for the current state, calls the
// authentication gate or the marker service and builds the reply.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/ermil/internal/common"
	"github.com/dmitrijs2005/ermil/internal/logging"
	"github.com/dmitrijs2005/ermil/internal/server/auth"
	"github.com/dmitrijs2005/ermil/internal/server/models"
	"github.com/dmitrijs2005/ermil/internal/server/services"
	"github.com/dmitrijs2005/ermil/internal/server/sessions"
)

type Authenticator interface {
	Register(ctx context.Context, userName, password string) (*models.Account, error)
	Login(ctx context.Context, userName, password string) (*models.Account, error)
	IssueIdentity(account *models.Account) (string, error)
	Identify(token string) (auth.Identity, error)
}

type MarkerManager interface {
	BeginCreate(ctx context.Context, accountID, coordinates string) (*services.Pending, error)
	CompleteCreate(ctx context.Context, accountID string, p services.Pending, description string) (*models.Marker, error)
	Abandon(ctx context.Context, p services.Pending) error
	Show(ctx context.Context, accountID, id string) (*models.Marker, error)
	Delete(ctx context.Context, accountID, id string) error
	List(ctx context.Context, accountID string) ([]string, error)
	Reconcile(ctx context.Context, accountID string) (int, error)
}

type Machine struct {
	auth    Authenticator
	markers MarkerManager
	log     logging.Logger
}

func NewMachine(a Authenticator, m MarkerManager, log logging.Logger) *Machine {
	return &Machine{auth: a, markers: m, log: log.With("module", "dialog")}
}

// turn is the working copy of a session during one Step.
type turn struct {
	sess     sessions.Session
	identity auth.Identity
	authed   bool
	text     string
	reply    Reply
}

func (t *turn) state() State {
	return State(t.sess.State)
}

func (t *turn) moveTo(s State) {
	t.sess.State = string(s)
}

func (t *turn) say(format string, args ...any) {
	if len(args) == 0 {
		t.reply.Text = format
		return
	}
	t.reply.Text = fmt.Sprintf(format, args...)
}

// Step runs one turn and returns the updated session with the reply. The
// session passed in is not modified.
func (m *Machine) Step(ctx context.Context, sess sessions.Session, utterance string, isNew bool) (sessions.Session, Reply) {
	t := &turn{sess: sess, text: strings.TrimSpace(utterance)}
	m.identify(ctx, t)

	switch {
	case isNew:
		m.start(ctx, t)
	case t.state().RequiresLogin() && !t.authed:
		m.expire(ctx, t)
	default:
		if t.sess.State == "" {
			t.moveTo(Unauthenticated)
		}
		if a, ok := resolve(t.state(), Classify(t.text)); ok {
			a(m, ctx, t)
		} else {
			m.fallback(t)
		}
	}

	t.reply.Buttons = Buttons(t.authed, t.state())
	return t.sess, t.reply
}

// identify checks the identity token carried by the session. A token that
// no longer verifies is dropped.
func (m *Machine) identify(ctx context.Context, t *turn) {
	if t.sess.Identity == "" {
		return
	}

	id, err := m.auth.Identify(t.sess.Identity)
	if err != nil {
		m.log.Info(ctx, "identity rejected", "session_id", t.sess.ID, "error", err)
		t.sess.Identity = ""
		return
	}

	t.identity = id
	t.authed = true
}

func (m *Machine) start(ctx context.Context, t *turn) {
	m.dropPending(ctx, t)

	if t.authed {
		t.moveTo(AuthenticatedIdle)
		t.say(textWelcomeBack)
		return
	}

	t.moveTo(Unauthenticated)
	t.say(textWelcome)
}

// expire handles a turn in a logged-in state after the login has lapsed.
func (m *Machine) expire(ctx context.Context, t *turn) {
	m.dropPending(ctx, t)
	t.moveTo(Unauthenticated)
	t.say(textNotLoggedIn)
}

func (m *Machine) dropPending(ctx context.Context, t *turn) {
	if t.sess.Pending == nil {
		return
	}

	if err := m.markers.Abandon(ctx, *t.sess.Pending); err != nil {
		m.log.Warn(ctx, "pending marker left for reconcile", "image_id", t.sess.Pending.ImageID, "error", err)
	}
	t.sess.Pending = nil
}

func (m *Machine) fallback(t *turn) {
	if t.state().Awaiting() {
		t.say(textReprompt)
		return
	}
	t.say(textNotUnderstood)
}

func (m *Machine) fail(ctx context.Context, t *turn, op string, err error) {
	m.log.Error(ctx, "turn failed", "session_id", t.sess.ID, "op", op, "state", t.state(), "error", err)
	t.say(textFailure)
}

func (m *Machine) help(ctx context.Context, t *turn) {
	t.say(textHelp)
}

func (m *Machine) requireLogin(ctx context.Context, t *turn) {
	t.say(textNotLoggedIn)
}

func (m *Machine) cancel(ctx context.Context, t *turn) {
	m.dropPending(ctx, t)

	if t.authed {
		t.moveTo(AuthenticatedIdle)
	} else {
		t.moveTo(Unauthenticated)
	}
	t.say(textCancelled)
}

func (m *Machine) startRegistration(ctx context.Context, t *turn) {
	t.moveTo(AwaitingRegistration)
	t.say(textAskCreds)
}

func (m *Machine) startLogin(ctx context.Context, t *turn) {
	t.moveTo(AwaitingLogin)
	t.say(textAskCreds)
}

func (m *Machine) register(ctx context.Context, t *turn) {
	name, password := pair(t.text)

	_, err := m.auth.Register(ctx, name, password)
	switch {
	case err == nil:
		t.moveTo(Unauthenticated)
		t.say(textRegistered)
	case errors.Is(err, common.ErrConflict):
		t.say(textNameTaken)
	case errors.Is(err, common.ErrValidation):
		t.say(textReprompt)
	default:
		m.fail(ctx, t, "register", err)
	}
}

func (m *Machine) login(ctx context.Context, t *turn) {
	name, password := pair(t.text)

	account, err := m.auth.Login(ctx, name, password)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrNotFound):
		t.say(textNoSuchUser)
		return
	case errors.Is(err, common.ErrUnauthorized):
		t.say(textWrongPassword)
		return
	default:
		m.fail(ctx, t, "login", err)
		return
	}

	token, err := m.auth.IssueIdentity(account)
	if err != nil {
		m.fail(ctx, t, "issue identity", err)
		return
	}

	t.sess.Identity = token
	t.identity = auth.Identity{AccountID: account.ID, UserName: account.UserName}
	t.authed = true
	t.moveTo(AuthenticatedIdle)
	t.say(textLoggedIn)

	if _, err := m.markers.Reconcile(ctx, account.ID); err != nil {
		m.log.Warn(ctx, "reconcile failed", "account_id", account.ID, "error", err)
	}
}

func (m *Machine) startCreate(ctx context.Context, t *turn) {
	t.moveTo(AwaitingCoordinates)
	t.say(textAskCoords)
}

func (m *Machine) coordinates(ctx context.Context, t *turn) {
	p, err := m.markers.BeginCreate(ctx, t.identity.AccountID, t.text)
	switch {
	case err == nil:
		t.sess.Pending = p
		t.moveTo(AwaitingDescription)
		t.say(textAskDesc)
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrProviderClient):
		t.say(textReprompt)
	default:
		m.fail(ctx, t, "begin create", err)
	}
}

func (m *Machine) describe(ctx context.Context, t *turn) {
	if t.sess.Pending == nil {
		// the pending marker is gone, nothing to describe
		t.moveTo(AuthenticatedIdle)
		t.say(textCreateLost)
		return
	}

	marker, err := m.markers.CompleteCreate(ctx, t.identity.AccountID, *t.sess.Pending, t.text)
	switch {
	case err == nil:
		t.sess.Pending = nil
		t.moveTo(AuthenticatedIdle)
		t.say(textCreated, marker.ID)
	case errors.Is(err, common.ErrValidation):
		t.say(textReprompt)
	case errors.Is(err, common.ErrNotFound):
		t.sess.Pending = nil
		t.moveTo(AuthenticatedIdle)
		t.say(textCreateLost)
	default:
		m.fail(ctx, t, "complete create", err)
	}
}

func (m *Machine) startShow(ctx context.Context, t *turn) {
	t.moveTo(AwaitingShowID)
	t.say(textAskID)
}

func (m *Machine) show(ctx context.Context, t *turn) {
	marker, err := m.markers.Show(ctx, t.identity.AccountID, t.text)
	if err != nil {
		m.lookupFailed(ctx, t, "show", err)
		return
	}

	t.moveTo(AuthenticatedIdle)
	t.say(textMapCaption)
	t.reply.Card = &Card{
		Type:        CardBigImage,
		ImageID:     marker.ID,
		Title:       marker.ID,
		Description: marker.Description + "\n" + marker.Coordinates,
	}
}

func (m *Machine) startDelete(ctx context.Context, t *turn) {
	t.moveTo(AwaitingDeleteID)
	t.say(textAskID)
}

func (m *Machine) delete(ctx context.Context, t *turn) {
	if err := m.markers.Delete(ctx, t.identity.AccountID, t.text); err != nil {
		m.lookupFailed(ctx, t, "delete", err)
		return
	}

	t.moveTo(AuthenticatedIdle)
	t.say(textDeleted)
}

func (m *Machine) lookupFailed(ctx context.Context, t *turn, op string, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		t.say(textNoSuchMarker)
	case errors.Is(err, common.ErrForbidden):
		t.say(textForeignMarker)
	default:
		m.fail(ctx, t, op, err)
	}
}

func (m *Machine) list(ctx context.Context, t *turn) {
	ids, err := m.markers.List(ctx, t.identity.AccountID)
	if err != nil {
		m.fail(ctx, t, "list", err)
		return
	}

	if len(ids) == 0 {
		t.say(textNoMarkers)
		return
	}
	t.say("%s", strings.Join(ids, "\n"))
}

// pair splits text already classified as two tokens.
func pair(text string) (string, string) {
	f := strings.Fields(text)
	return f[0], f[1]
}
