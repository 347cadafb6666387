package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tornado/internal/config"
	"tornado/internal/docstore"
)

func projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"ls"},
		Short:   "List projects in the document store",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, store docstore.Store, _ *zap.Logger) error {
				ps, err := store.List(ctx)
				if err != nil {
					return err
				}
				if len(ps) == 0 {
					fmt.Println("  No projects yet.")
					fmt.Println("  Create one with `tornado projects create <name>` or just start drawing with `tornado`")
					return nil
				}
				var rows [][]string
				for _, p := range ps {
					rows = append(rows, []string{p.ID, p.Name, p.UpdatedAt.Local().Format("Jan 02 15:04")})
				}
				table([]string{"ID", "Name", "Updated"}, rows)
				fmt.Printf("\n  %d project(s) in %s store\n", len(ps), cfg.Store.Backend)
				return nil
			})
		},
	}
	cmd.AddCommand(projectCreateCmd(), projectRenameCmd(), projectDeleteCmd())
	return cmd
}

func projectCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return withStore(func(ctx context.Context, _ *config.Config, store docstore.Store, _ *zap.Logger) error {
				if err := docstore.ValidateRequest(docstore.ProjectRequest{Name: name}); err != nil {
					return err
				}
				p, err := store.Create(ctx, name)
				if err != nil {
					return err
				}
				Good.Printf("  Created %s ", p.Name)
				Subtle.Println(p.ID)
				return nil
			})
		},
	}
}

func projectRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <project> <name>",
		Short: "Rename a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args[1:], " ")
			return withStore(func(ctx context.Context, _ *config.Config, store docstore.Store, _ *zap.Logger) error {
				if err := docstore.ValidateRequest(docstore.ProjectRequest{Name: name}); err != nil {
					return err
				}
				p, err := findProject(ctx, store, args[0])
				if err != nil {
					return err
				}
				if err := store.Rename(ctx, p.ID, name); err != nil {
					return err
				}
				Good.Printf("  Renamed %s to %s\n", p.Name, name)
				return nil
			})
		},
	}
}

func projectDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <project>",
		Aliases: []string{"rm"},
		Short:   "Delete a project and its board",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, _ *config.Config, store docstore.Store, _ *zap.Logger) error {
				p, err := findProject(ctx, store, args[0])
				if err != nil {
					return err
				}
				if !yes {
					fmt.Printf("  Delete %s (%s)? [y/N] ", p.Name, p.ID)
					var answer string
					fmt.Scanln(&answer)
					if !strings.EqualFold(strings.TrimSpace(answer), "y") {
						Subtle.Println("  Cancelled")
						return nil
					}
				}
				if err := store.Delete(ctx, p.ID); err != nil {
					return err
				}
				Good.Printf("  Deleted %s\n", p.Name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
