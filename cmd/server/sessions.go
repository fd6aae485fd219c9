package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"chat-clone/internal/history"
	"chat-clone/internal/render"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the session history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.session)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.store.Items(cmd.Context(), a.cfg.SessionID)
			if err != nil {
				return err
			}

			if format == "" || format == "text" {
				printBlocks(cmd.OutOrStdout(), render.Replay(items))
				return nil
			}

			exporter, err := history.ExporterFor(format)
			if err != nil {
				return err
			}
			return exporter.Export(&history.Export{
				SessionID:  a.cfg.SessionID,
				ExportedAt: time.Now().UTC(),
				Items:      items,
			}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, yaml or md")
	return cmd
}

func printBlocks(w io.Writer, blocks []render.Block) {
	if len(blocks) == 0 {
		fmt.Fprintln(w, labelStyle.Render("No messages in this session."))
		return
	}
	for _, block := range blocks {
		speaker := aiStyle.Render("ai")
		if block.Role == render.BlockRoleUser {
			speaker = userStyle.Render("user")
		}

		switch block.Kind {
		case render.KindImage:
			fmt.Fprintf(w, "%s %s\n", speaker, labelStyle.Render(imageSummary(block.Text)))
		case render.KindCode:
			fmt.Fprintf(w, "%s\n%s\n", speaker, codeStyle.Render(block.Text))
		case render.KindNotice:
			fmt.Fprintf(w, "%s %s\n", speaker, labelStyle.Render(block.Text))
		default:
			fmt.Fprintf(w, "%s %s\n", speaker, block.Text)
		}
	}
}

// imageSummary shortens a data URI to its media type and size.
func imageSummary(uri string) string {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return "[image]"
	}
	mediaType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	return fmt.Sprintf("[image %s, %d KiB]", mediaType, len(payload)*3/4/1024)
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the session history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.session)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.agent.ClearSession(cmd.Context(), a.cfg.SessionID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared session %s\n", idStyle.Render(a.cfg.SessionID))
			return nil
		},
	}
}

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.session)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.agent.ListSessions(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, labelStyle.Render("No sessions stored."))
				return nil
			}

			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d session(s)", len(sessions))))
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, s := range sessions {
				fmt.Fprintf(tw, "%s\t%s\t%s\n",
					idStyle.Render(s.SessionID),
					countStyle.Render(fmt.Sprintf("%d items", s.ItemCount)),
					dateStyle.Render(s.UpdatedAt.Local().Format("2006-01-02 15:04")),
				)
			}
			return tw.Flush()
		},
	}
}
