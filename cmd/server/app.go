package main

import (
	"fmt"

	"chat-clone/internal/agent"
	"chat-clone/internal/auth"
	"chat-clone/internal/config"
	"chat-clone/internal/history"
	"chat-clone/internal/openai"
	"chat-clone/internal/upload"
)

// app bundles the services shared by the server and the CLI commands.
type app struct {
	cfg     *config.Config
	store   history.Store
	agent   *agent.Service
	uploads *upload.Service
}

func openApp(sessionOverride string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if sessionOverride != "" {
		if !auth.IsValidSessionID(sessionOverride) {
			return nil, fmt.Errorf("invalid session id %q", sessionOverride)
		}
		cfg.SessionID = sessionOverride
	}

	definition, err := agent.LoadDefinition(cfg.AgentConfigPath, cfg.Variant, cfg.Model, cfg.VectorStoreID)
	if err != nil {
		return nil, err
	}

	store, err := history.Open(cfg.SessionBackend, cfg.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	client := openai.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	return &app{
		cfg:   cfg,
		store: store,
		agent: agent.NewService(store, client, definition, agent.ServiceOptions{
			MaxRunDuration: cfg.MaxRunDuration,
		}),
		uploads: upload.NewService(store, client, upload.Options{
			Enabled:       cfg.UploadsEnabled(),
			VectorStoreID: cfg.VectorStoreID,
			MaxBytes:      cfg.MaxUploadBytes,
		}),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
