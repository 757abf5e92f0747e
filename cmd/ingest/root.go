package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flags onto the configuration keys they override.
var flagKeys = map[string]string{
	"manifest":    "MANIFEST_PATH",
	"video-dir":   "VIDEO_DIR",
	"image-dir":   "IMAGE_DIR",
	"scratch-dir": "SCRATCH_DIR",
}

func newRootCommand() *cobra.Command {
	var opts ingestOptions
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "ingest",
		Short:         "Transcode, upload and record the videos listed in a manifest",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			for flag, key := range flagKeys {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			opts.envFiles = []string{envFile}
			return runIngest(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	flags := rootCmd.Flags()
	flags.String("manifest", "", "Path to the .xlsx manifest (MANIFEST_PATH)")
	flags.String("video-dir", "", "Directory holding source videos (VIDEO_DIR)")
	flags.String("image-dir", "", "Directory holding thumbnails (IMAGE_DIR)")
	flags.String("scratch-dir", "", "Scratch root for transcoder output (SCRATCH_DIR)")
	flags.StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the environment is read")
	flags.BoolVar(&opts.migrate, "migrate", false, "Apply database migrations before the run")
	flags.BoolVar(&opts.failOnError, "fail-on-error", false, "Exit with status 2 when any item fails")

	return rootCmd
}
