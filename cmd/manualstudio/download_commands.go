package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"manualstudio/internal/api"
)

func newDownloadCommand(cctx *commandContext) *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Mint download URLs for job artifacts",
	}

	downloadCmd.AddCommand(&cobra.Command{
		Use:   "slides <job-id>",
		Short: "URL for the rendered slide deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				url, err := service.DownloadSlidesURL(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	})

	downloadCmd.AddCommand(&cobra.Command{
		Use:   "frames <job-id>",
		Short: "URL for the frames archive (built on first request)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				url, err := service.DownloadFramesZipURL(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	})

	downloadCmd.AddCommand(&cobra.Command{
		Use:   "frame <job-id> <file-name>",
		Short: "URL for one extracted frame image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				url, err := service.FrameURL(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	})

	return downloadCmd
}
