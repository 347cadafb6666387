package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tornado/internal/assets"
)

func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Downscale an image and upload it the way the board does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			im, err := assets.Import(context.Background(), newUploader(cfg), args[0],
				assets.Options{MaxSide: cfg.Assets.MaxSide, Quality: cfg.Assets.Quality},
				float64(cfg.Assets.MaxWidth))
			if err != nil {
				return err
			}
			Good.Print("  Uploaded ")
			fmt.Println(im.URL)
			Subtle.Printf("  %.0fx%.0f on the board\n", im.Width, im.Height)
			return nil
		},
	}
}
