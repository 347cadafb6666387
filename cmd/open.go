package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tornado/internal/docstore"
	"tornado/internal/logging"
	"tornado/internal/tui"
)

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open [project]",
		Short: "Open the board, optionally straight into a project (id or name)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			return runBoard(ref)
		},
	}
}

// runBoard runs the terminal UI until the user quits. Saves go through a
// background writer; failures are posted back to the UI.
func runBoard(ref string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	store, err := docstore.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if ref == "" {
		ref = cfg.Store.Project
	}
	projectID := ref
	if ref != "" {
		if p, err := findProject(ctx, store, ref); err == nil {
			projectID = p.ID
		}
	}

	var program *tea.Program
	writer := docstore.NewWriter(store,
		docstore.WithLogger(logger),
		docstore.WithTimeout(time.Duration(cfg.Store.TimeoutSeconds)*time.Second),
		docstore.WithErrorHandler(func(id string, err error) {
			if program != nil {
				program.Send(tui.PersistError(id, err))
			}
		}),
	)

	model := tui.New(tui.Deps{
		Store:     store,
		Writer:    writer,
		Uploader:  newUploader(cfg),
		Config:    cfg,
		Logger:    logger,
		Clipboard: tui.SystemClipboard(),
	}, tui.Options{ProjectID: projectID})

	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	logger.Info("board started", zap.String("backend", cfg.Store.Backend), zap.String("project", projectID))
	_, runErr := program.Run()

	if err := writer.Close(); err != nil {
		logger.Error("closing writer", zap.Error(err))
	}
	if runErr != nil {
		return fmt.Errorf("run board: %w", runErr)
	}
	return nil
}
