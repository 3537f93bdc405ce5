package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/timmy/wishpage/internal/service"
	"github.com/timmy/wishpage/internal/source/localdir"
)

var createCmd = &cobra.Command{
	Use:   "create <message>",
	Short: "Generate page content from a message and store it as a new wish",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wishes := wishApp.Services.Wishes
		wish, err := wishes.Create(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(map[string]string{
			"id":            wish.ID,
			"url":           wishes.PageURL(wish.ID),
			"componentType": wish.ComponentType,
		})
	},
}

var importOpts struct {
	dir   string
	force bool
	limit int
}

var importCmd = &cobra.Command{
	Use:     "import",
	Short:   "Upload a local directory of photos, videos and audio into a wish",
	PreRunE: requireWishID,
	RunE: func(cmd *cobra.Command, args []string) error {
		if importOpts.dir == "" {
			return errors.New("--dir is required")
		}
		if _, err := os.Stat(importOpts.dir); err != nil {
			return fmt.Errorf("cannot read %s: %w", importOpts.dir, err)
		}
		stats, err := wishApp.Importer.Import(cmd.Context(), opts.wishID, localdir.NewAdapter(importOpts.dir), &service.ImportOptions{
			Force: importOpts.force,
			Limit: importOpts.limit,
		})
		if stats != nil {
			if perr := printJSON(stats); perr != nil {
				return perr
			}
		}
		return err
	},
}

var describeCmd = &cobra.Command{
	Use:     "describe",
	Short:   "Describe every uploaded image of a wish",
	PreRunE: requireWishID,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := wishApp.Services.Descriptions.Describe(cmd.Context(), opts.wishID)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var cutePhotosCmd = &cobra.Command{
	Use:     "cute-photos <description>...",
	Short:   "Generate illustrations for each description and scenario",
	Args:    cobra.MinimumNArgs(1),
	PreRunE: requireWishID,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := wishApp.Services.Derivatives.GenerateCutePhotos(cmd.Context(), opts.wishID, args)
		if res != nil && len(res.GeneratedImages) > 0 {
			if perr := printJSON(res); perr != nil {
				return perr
			}
		}
		return err
	},
}

var songOpts service.SongRequest

var songCmd = &cobra.Command{
	Use:     "song",
	Short:   "Generate a song and store it with the wish's audio",
	PreRunE: requireWishID,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := songOpts
		req.WaitAudio = true
		res, err := wishApp.Services.Derivatives.GenerateSong(cmd.Context(), opts.wishID, req)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var runOpts service.PipelineOptions

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Describe images, generate illustrations, then a song",
	PreRunE: requireWishID,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := wishApp.Pipeline.Run(cmd.Context(), opts.wishID, runOpts)
		if report != nil {
			if perr := printJSON(report); perr != nil {
				return perr
			}
		}
		return err
	},
}

func init() {
	importCmd.Flags().StringVar(&importOpts.dir, "dir", "", "Directory to upload")
	importCmd.Flags().BoolVar(&importOpts.force, "force", false, "Re-upload files that already exist")
	importCmd.Flags().IntVar(&importOpts.limit, "limit", 0, "Maximum number of files (0 = all)")

	songCmd.Flags().StringVar(&songOpts.Prompt, "prompt", "", "Song prompt; derived from the wish when empty")
	songCmd.Flags().BoolVar(&songOpts.MakeInstrumental, "instrumental", false, "Generate without vocals")

	runCmd.Flags().BoolVar(&runOpts.SkipPhotos, "skip-photos", false, "Skip illustration generation")
	runCmd.Flags().BoolVar(&runOpts.SkipSong, "skip-song", false, "Skip song generation")
	runCmd.Flags().StringVar(&runOpts.SongPrompt, "song-prompt", "", "Song prompt; derived from the wish when empty")
	runCmd.Flags().BoolVar(&runOpts.MakeInstrumental, "instrumental", false, "Generate the song without vocals")
}
