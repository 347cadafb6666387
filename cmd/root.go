package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tornado/internal/assets"
	"tornado/internal/config"
	"tornado/internal/docstore"
	"tornado/internal/logging"
)

var version = "0.3.0"

var (
	cfgPath      string
	storeBackend string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "tornado",
	Short: "Sticky notes, emoji and images on an infinite board",
	Long: Brand.Sprint("tornado") + ": a board of sticky notes, emoji and images in your terminal\n" +
		Subtle.Sprint("Drag, resize and restack with the mouse; every change is saved in the background"),
	Version:      version,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		return runBoard(project)
	},
}

func init() {
	rootCmd.SetVersionTemplate("tornado {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "document store: sqlite, remote or dynamodb")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log informational messages")
	rootCmd.Flags().StringP("project", "p", "", "Open this project id directly")

	rootCmd.AddCommand(
		openCmd(),
		projectsCmd(),
		exportCmd(),
		serveCmd(),
		uploadCmd(),
		configCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgPath != "" {
		cfg, err = config.LoadFile(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if storeBackend != "" {
		cfg.Store.Backend = storeBackend
	}
	return cfg, nil
}

// consoleLogger is for one-shot commands: quiet unless --verbose.
func consoleLogger(cfg *config.Config) (*zap.Logger, error) {
	level := "warn"
	if verbose {
		level = cfg.Log.Level
	}
	return logging.NewConsole(level)
}

// withStore loads config, opens the configured store and hands both to fn.
func withStore(fn func(ctx context.Context, cfg *config.Config, store docstore.Store, logger *zap.Logger) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := consoleLogger(cfg)
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
	return fn(ctx, cfg, store, logger)
}

// newUploader picks where imported images go: an explicit asset server,
// the remote document server, or the local asset directory.
func newUploader(cfg *config.Config) assets.Uploader {
	switch {
	case cfg.Assets.URL != "":
		return assets.NewRemoteUploader(cfg.Assets.URL, nil)
	case cfg.Store.Backend == "remote" && cfg.Store.URL != "":
		return assets.NewRemoteUploader(cfg.Store.URL, nil)
	}
	return assets.NewLocalUploader(cfg.Assets.Dir, "")
}

// findProject resolves a project by id, or by name when no id matches.
func findProject(ctx context.Context, store docstore.Store, ref string) (docstore.Project, error) {
	ps, err := store.List(ctx)
	if err != nil {
		return docstore.Project{}, err
	}
	for _, p := range ps {
		if p.ID == ref {
			return p, nil
		}
	}
	var found []docstore.Project
	for _, p := range ps {
		if p.Name == ref {
			found = append(found, p)
		}
	}
	switch len(found) {
	case 0:
		return docstore.Project{}, fmt.Errorf("%q: %w", ref, docstore.ErrNotFound)
	case 1:
		return found[0], nil
	}
	return docstore.Project{}, fmt.Errorf("%d projects are named %q, use the id", len(found), ref)
}
