package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tornado/internal/config"
	"tornado/internal/docstore"
	"tornado/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a project board as an image or text",
	}
	cmd.AddCommand(exportFormatCmd("png", "Render a board to a PNG image"), exportFormatCmd("txt", "Render a board as terminal text"))
	return cmd
}

func exportFormatCmd(format, short string) *cobra.Command {
	return &cobra.Command{
		Use:   format + " <project> [file]",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, store docstore.Store, logger *zap.Logger) error {
				p, err := findProject(ctx, store, args[0])
				if err != nil {
					return err
				}
				nodes, err := store.Load(ctx, p.ID)
				if err != nil {
					return err
				}
				path := cfg.SavePath(export.FileName(p.Name, "."+format))
				if len(args) == 2 {
					path = args[1]
				}
				logger.Debug("exporting", zap.String("project", p.ID), zap.Int("nodes", len(nodes)), zap.String("path", path))

				switch format {
				case "png":
					err = export.PNG(nodes, path, export.PNGOptions{})
				default:
					err = export.TextFile(path, nodes, export.TextOptions{})
				}
				if err != nil {
					return err
				}
				Good.Printf("  Exported %s ", p.Name)
				fmt.Println("to " + path)
				return nil
			})
		},
	}
}
