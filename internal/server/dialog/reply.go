package dialog

// Button is a suggested reply. Hide removes it from the chat history once
// it has been pressed.
type Button struct {
	Title string
	Hide  bool
}

// Card asks the client to render a hosted image.
type Card struct {
	Type        string
	ImageID     string
	Title       string
	Description string
}

const CardBigImage = "BigImage"

type Reply struct {
	Text    string
	Buttons []Button
	Card    *Card
}

var (
	guestMenu = []string{CmdRegister, CmdLogin, CmdHelp}
	userMenu  = []string{CmdCreate, CmdShow, CmdDelete, CmdList, CmdHelp}
	flowMenu  = []string{CmdCancel}
)

// Buttons returns the menu for a state. It depends on nothing else, so the
// same state always shows the same buttons.
func Buttons(authenticated bool, state State) []Button {
	var titles []string
	switch {
	case state.Awaiting():
		titles = flowMenu
	case authenticated && state == AuthenticatedIdle:
		titles = userMenu
	case !authenticated:
		titles = guestMenu
	default:
		return nil
	}

	buttons := make([]Button, 0, len(titles))
	for _, t := range titles {
		buttons = append(buttons, Button{Title: t, Hide: true})
	}
	return buttons
}
