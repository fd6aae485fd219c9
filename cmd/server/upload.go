package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chat-clone/internal/render"
	"chat-clone/internal/upload"
)

func newUploadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>...",
		Short: "Attach text files or images to the session",
		Long: `Attach files the way the chat page does.

Text files are uploaded and added to the vector store behind file search.
Images are stored in the session as user input for the next message.
Accepted extensions: ` + upload.Accept(),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.session)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				name := filepath.Base(path)
				file := upload.File{
					Name:        name,
					ContentType: mime.TypeByExtension(filepath.Ext(name)),
					Content:     content,
				}

				_, err = a.uploads.Ingest(cmd.Context(), a.cfg.SessionID, file, func(status render.Status) {
					fmt.Fprintf(out, "%s %s\n", idStyle.Render(name), labelStyle.Render(status.Label))
				})
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
			return nil
		},
	}
}
