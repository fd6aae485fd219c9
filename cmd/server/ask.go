package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"chat-clone/internal/agent"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message and stream the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.session)
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.agent.ChatStream(cmd.Context(), agent.ChatRequest{
				SessionID: a.cfg.SessionID,
				Message:   strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			return printTurn(cmd.OutOrStdout(), run.Events)
		},
	}
}

// printTurn writes status changes as they happen, streams the answer text
// and prints generated code once the turn is over.
func printTurn(w io.Writer, events <-chan agent.StreamEvent) error {
	var (
		printed  string
		code     string
		lastStep string
		runErr   error
	)
	for event := range events {
		switch event.Type {
		case agent.EventStatus:
			if event.Label != "" && event.Label != lastStep {
				lastStep = event.Label
				if printed != "" {
					fmt.Fprintln(w)
				}
				fmt.Fprintln(w, labelStyle.Render(event.Label))
			}
		case agent.EventCode:
			code = event.Text
		case agent.EventText:
			if strings.HasPrefix(event.Text, printed) {
				fmt.Fprint(w, event.Text[len(printed):])
			} else {
				fmt.Fprint(w, "\n"+event.Text)
			}
			printed = event.Text
		case agent.EventError:
			runErr = errors.New(event.Message)
		}
	}
	if printed != "" {
		fmt.Fprintln(w)
	}
	if code != "" {
		fmt.Fprintln(w, codeStyle.Render(code))
	}
	if runErr != nil {
		fmt.Fprintln(w, errorStyle.Render("error: "+runErr.Error()))
		return runErr
	}
	return nil
}
