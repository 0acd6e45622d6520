package dialog

import "context"

type action func(m *Machine, ctx context.Context, t *turn)

// transitions maps state and input class to the action that handles it.
// Classes missing from a state's row fall through to fallback.
var transitions = map[State]map[Input]action{
	Unauthenticated: {
		InputRegister: (*Machine).startRegistration,
		InputLogin:    (*Machine).startLogin,
		InputHelp:     (*Machine).help,
		InputCreate:   (*Machine).requireLogin,
		InputShow:     (*Machine).requireLogin,
		InputDelete:   (*Machine).requireLogin,
		InputList:     (*Machine).requireLogin,
	},
	AwaitingRegistration: {
		InputCancel: (*Machine).cancel,
		InputPair:   (*Machine).register,
	},
	AwaitingLogin: {
		InputCancel: (*Machine).cancel,
		InputPair:   (*Machine).login,
	},
	AuthenticatedIdle: {
		InputCreate: (*Machine).startCreate,
		InputShow:   (*Machine).startShow,
		InputDelete: (*Machine).startDelete,
		InputList:   (*Machine).list,
		InputHelp:   (*Machine).help,
	},
	AwaitingCoordinates: {
		InputCancel: (*Machine).cancel,
		InputPair:   (*Machine).coordinates,
	},
	AwaitingDescription: {
		InputCancel: (*Machine).cancel,
		InputText:   (*Machine).describe,
	},
	AwaitingShowID: {
		InputCancel: (*Machine).cancel,
		InputSingle: (*Machine).show,
	},
	AwaitingDeleteID: {
		InputCancel: (*Machine).cancel,
		InputSingle: (*Machine).delete,
	},
}

// resolve picks the action for the first input class the state handles.
func resolve(state State, classes []Input) (action, bool) {
	row := transitions[state]
	for _, c := range classes {
		if a, ok := row[c]; ok {
			return a, true
		}
	}
	return nil, false
}
