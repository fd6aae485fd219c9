package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	aiStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	codeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	idStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

type rootOptions struct {
	session string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	serve := newServeCmd(opts)

	cmd := &cobra.Command{
		Use:   "chat-clone",
		Short: "Browser chat front end for a hosted agent",
		Long: `A thin chat front end over a hosted agent runtime.

Run without a subcommand to start the web server. The other commands work
on the same session store from the terminal.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         serve.RunE,
	}
	cmd.Flags().AddFlagSet(serve.Flags())
	cmd.PersistentFlags().StringVarP(&opts.session, "session", "s", "", "Session ID (defaults to SESSION_ID or chat-history)")

	cmd.AddCommand(
		serve,
		newAskCmd(opts),
		newHistoryCmd(opts),
		newResetCmd(opts),
		newUploadCmd(opts),
		newSessionsCmd(opts),
	)
	return cmd
}
