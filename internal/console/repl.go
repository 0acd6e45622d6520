package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

type turner interface {
	Turn(ctx context.Context, utterance string) (*Reply, error)
}

type App struct {
	client turner
	in     io.Reader
	out    io.Writer
	prompt bool
}

func NewApp(cfg *Config) *App {
	return &App{
		client: NewClient(cfg.WebhookURL, &http.Client{Timeout: cfg.Timeout}),
		in:     os.Stdin,
		out:    os.Stdout,
		prompt: isTerminal(int(os.Stdin.Fd())),
	}
}

// Run opens the conversation and then sends one turn per input line until
// EOF or "/exit".
func (a *App) Run(ctx context.Context) error {
	if err := a.send(ctx, ""); err != nil {
		return err
	}

	scanner := bufio.NewScanner(a.in)
	for {
		if a.prompt {
			fmt.Fprint(a.out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			fmt.Fprintln(a.out, "Bye!")
			return nil
		}

		if err := a.send(ctx, line); err != nil {
			fmt.Fprintln(a.out, "error:", err)
		}
	}
}

func (a *App) send(ctx context.Context, utterance string) error {
	reply, err := a.client.Turn(ctx, utterance)
	if err != nil {
		return err
	}
	render(a.out, reply)
	return nil
}

func render(w io.Writer, r *Reply) {
	fmt.Fprintln(w, r.Text)

	if r.Card != nil {
		fmt.Fprintf(w, "[%s %s] %s\n", r.Card.Type, r.Card.ImageID, r.Card.Title)
		for _, line := range strings.Split(r.Card.Description, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}

	if len(r.Buttons) > 0 {
		titles := make([]string, 0, len(r.Buttons))
		for _, b := range r.Buttons {
			titles = append(titles, "["+b.Title+"]")
		}
		fmt.Fprintln(w, strings.Join(titles, " "))
	}
}
