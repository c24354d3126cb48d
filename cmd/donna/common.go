package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/metalagman/donna/internal/agent"
	"github.com/metalagman/donna/internal/agent/openaiapi"
	"github.com/metalagman/donna/internal/config"
	"github.com/metalagman/donna/internal/db"
	"github.com/metalagman/donna/internal/task"
	"github.com/metalagman/donna/internal/tools"
)

func openDB(cfg config.Config) (*sql.DB, func(), error) {
	path := cfg.DB.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, func() {}, err
		}
	}
	storeDB, err := db.Open(path)
	if err != nil {
		return nil, func() {}, err
	}
	return storeDB, func() { _ = storeDB.Close() }, nil
}

// localUserEmail identifies the account used by the chat and mcp commands,
// which run against the local database without HTTP authentication.
const localUserEmail = "local@donna"

// localUserID returns the id of the local CLI account, creating it on first
// use.
func localUserID(ctx context.Context, storeDB *sql.DB) (string, error) {
	var id string
	err := storeDB.QueryRowContext(ctx, `SELECT id FROM users WHERE email=?`, localUserEmail).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id = uuid.NewString()
	_, err = storeDB.ExecContext(ctx, `INSERT INTO users(id, email, name, hashed_password, created_at)
		VALUES(?, ?, 'local', '!', ?)`,
		id, localUserEmail, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return id, nil
}

// newOrchestrator builds the model client and agent loop from config.
func newOrchestrator(cfg config.Config, storeDB *sql.DB) (*agent.Orchestrator, error) {
	client, err := openaiapi.NewClient(openaiapi.Config{
		Model:     cfg.Model.Model,
		BaseURL:   cfg.Model.BaseURL,
		APIKey:    cfg.Model.APIKey,
		APIKeyEnv: cfg.Model.APIKeyEnv,
		Timeout:   time.Duration(cfg.Model.Timeout) * time.Second,
	}, nil)
	if err != nil {
		return nil, err
	}

	dispatcher := tools.NewDispatcher(task.NewSQLStore(storeDB))
	return agent.New(client, dispatcher, agent.Options{
		HistoryWindow: cfg.Chat.HistoryWindow,
		MaxRounds:     cfg.Chat.MaxToolRounds,
	}), nil
}
