package dialog

import "strings"

// State is the phase a conversation is in.
type State string

const (
	Unauthenticated      State = "Unauthenticated"
	AwaitingRegistration State = "AwaitingRegistration"
	AwaitingLogin        State = "AwaitingLogin"
	AuthenticatedIdle    State = "AuthenticatedIdle"
	AwaitingCoordinates  State = "AwaitingCoordinates"
	AwaitingDescription  State = "AwaitingDescription"
	AwaitingShowID       State = "AwaitingShowId"
	AwaitingDeleteID     State = "AwaitingDeleteId"
)

// Awaiting reports whether the state is collecting input for a flow.
func (s State) Awaiting() bool {
	switch s {
	case AwaitingRegistration, AwaitingLogin, AwaitingCoordinates,
		AwaitingDescription, AwaitingShowID, AwaitingDeleteID:
		return true
	}
	return false
}

// RequiresLogin reports whether the state only makes sense for a logged-in user.
func (s State) RequiresLogin() bool {
	switch s {
	case AuthenticatedIdle, AwaitingCoordinates, AwaitingDescription, AwaitingShowID, AwaitingDeleteID:
		return true
	}
	return false
}

// Input is the class of an utterance as far as the transition table cares.
type Input int

const (
	InputCancel Input = iota
	InputRegister
	InputLogin
	InputCreate
	InputShow
	InputDelete
	InputList
	InputHelp
	// InputPair is exactly two whitespace separated tokens.
	InputPair
	// InputSingle is exactly one token.
	InputSingle
	// InputText is any non-empty text.
	InputText
)

var commands = map[string]Input{
	CmdCancel:   InputCancel,
	CmdRegister: InputRegister,
	CmdLogin:    InputLogin,
	CmdCreate:   InputCreate,
	CmdShow:     InputShow,
	CmdDelete:   InputDelete,
	CmdList:     InputList,
	CmdHelp:     InputHelp,
}

// Classify lists the classes an utterance belongs to, most specific first:
// cancel, then a literal command, then the token shape, then free text.
// The state picks the first class it has a transition for.
func Classify(utterance string) []Input {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return nil
	}

	var classes []Input
	if in, ok := commands[text]; ok {
		classes = append(classes, in)
	}

	switch len(strings.Fields(text)) {
	case 1:
		classes = append(classes, InputSingle)
	case 2:
		classes = append(classes, InputPair)
	}

	return append(classes, InputText)
}
