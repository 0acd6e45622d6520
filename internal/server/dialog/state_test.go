package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want []Input
	}{
		{"", nil},
		{"   ", nil},
		{"Отмена", []Input{InputCancel, InputSingle, InputText}},
		{"Вход", []Input{InputLogin, InputSingle, InputText}},
		{"  Справка ", []Input{InputHelp, InputSingle, InputText}},
		{"Мои метки", []Input{InputList, InputPair, InputText}},
		{"Создать метку", []Input{InputCreate, InputPair, InputText}},
		{"55.75 37.61", []Input{InputPair, InputText}},
		{"img-1", []Input{InputSingle, InputText}},
		{"a b c", []Input{InputText}},
		{"вход", []Input{InputSingle, InputText}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestStatePredicates(t *testing.T) {
	awaiting := []State{AwaitingRegistration, AwaitingLogin, AwaitingCoordinates, AwaitingDescription, AwaitingShowID, AwaitingDeleteID}
	for _, s := range awaiting {
		assert.True(t, s.Awaiting(), s)
	}
	assert.False(t, Unauthenticated.Awaiting())
	assert.False(t, AuthenticatedIdle.Awaiting())

	assert.True(t, AuthenticatedIdle.RequiresLogin())
	assert.True(t, AwaitingDeleteID.RequiresLogin())
	assert.False(t, AwaitingLogin.RequiresLogin())
	assert.False(t, Unauthenticated.RequiresLogin())
}

func TestTransitionTable_CoversEveryState(t *testing.T) {
	for _, s := range []State{Unauthenticated, AwaitingRegistration, AwaitingLogin, AuthenticatedIdle,
		AwaitingCoordinates, AwaitingDescription, AwaitingShowID, AwaitingDeleteID} {
		assert.NotEmpty(t, transitions[s], s)
		if s.Awaiting() {
			_, ok := transitions[s][InputCancel]
			assert.True(t, ok, "%s must accept cancel", s)
		}
	}
}

func TestResolve_PicksFirstHandledClass(t *testing.T) {
	_, ok := resolve(AwaitingCoordinates, Classify("Мои метки"))
	assert.True(t, ok, "two tokens are coordinates mid-flow")

	_, ok = resolve(AuthenticatedIdle, Classify("55.75 37.61"))
	assert.False(t, ok)
}
