package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chat-clone/internal/api"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.session)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.cfg.ServerAddr = addr
			}
			if a.cfg.OpenAIKey == "" {
				log.Printf("OPENAI_API_KEY is not set; chat and uploads will fail until it is configured")
			}
			if a.cfg.ChatToken == "" {
				log.Printf("CHAT_TOKEN is not set; the API is open to anyone who can reach %s", a.cfg.ServerAddr)
			}

			srv := api.NewServer(a.cfg, a.store, a.agent, a.uploads)
			router := api.NewRouter(srv)

			httpServer := &http.Server{
				Addr:         a.cfg.ServerAddr,
				Handler:      router,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 0, // Disable for streaming
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("Server starting on %s (variant=%s backend=%s session=%s)",
					a.cfg.ServerAddr, a.cfg.Variant, a.cfg.SessionBackend, a.cfg.SessionID)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
				return nil
			case <-quit:
			}

			log.Println("Shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				return err
			}

			log.Println("Server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to SERVER_ADDR or :8080)")
	return cmd
}
