package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"manualstudio/internal/api"
	"manualstudio/internal/jobs"
)

func newJobsCommand(cctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage conversion jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(cctx))
	jobsCmd.AddCommand(newJobsShowCommand(cctx))
	jobsCmd.AddCommand(newJobsCreateCommand(cctx))
	jobsCmd.AddCommand(newJobsCancelCommand(cctx))
	jobsCmd.AddCommand(newJobsRetryCommand(cctx))
	jobsCmd.AddCommand(newJobsRegenerateCommand(cctx))

	return jobsCmd
}

func newJobsListCommand(cctx *commandContext) *cobra.Command {
	var status, search string
	var page, pageSize int
	var asc bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				result, err := service.ListJobs(ctx, api.ListRequest{
					Status:   status,
					Text:     search,
					Page:     page,
					PageSize: pageSize,
					SortAsc:  asc,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if result.Total == 0 {
					fmt.Fprintln(out, "No jobs found")
					return nil
				}

				rows := make([][]string, 0, len(result.Jobs))
				for _, job := range result.Jobs {
					rows = append(rows, []string{
						shortID(job.ID),
						string(job.Status),
						stageLabel(job),
						strconv.Itoa(job.Progress) + "%",
						truncate(dash(job.Title), 32),
						job.Language,
						strconv.Itoa(job.CurrentVersion),
						formatWhen(job.UpdatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "STATUS", "STAGE", "PROG", "TITLE", "LANG", "VER", "UPDATED"},
					rows, 4, 7))
				fmt.Fprintf(out, "Page %d (%d of %d jobs)\n", result.Page, len(result.Jobs), result.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (QUEUED, RUNNING, SUCCEEDED, FAILED, CANCELED)")
	cmd.Flags().StringVar(&search, "search", "", "Substring match on title or goal")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Jobs per page (max 100)")
	cmd.Flags().BoolVar(&asc, "asc", false, "Oldest first")
	return cmd
}

func newJobsShowCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				job, err := service.GetJob(ctx, args[0])
				if err != nil {
					return err
				}
				printJobDetail(cmd, job)
				return nil
			})
		},
	}
}

func printJobDetail(cmd *cobra.Command, job *jobs.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:         %s\n", job.ID)
	fmt.Fprintf(out, "Status:     %s\n", job.Status)
	fmt.Fprintf(out, "Stage:      %s\n", stageLabel(job))
	fmt.Fprintf(out, "Progress:   %d%%\n", job.Progress)
	fmt.Fprintf(out, "Title:      %s\n", dash(job.Title))
	fmt.Fprintf(out, "Goal:       %s\n", dash(job.Goal))
	fmt.Fprintf(out, "Language:   %s\n", job.Language)
	fmt.Fprintf(out, "Version:    %d\n", job.CurrentVersion)
	if job.VideoDurationSec > 0 {
		fmt.Fprintf(out, "Video:      %.1fs @ %.2f fps, %s\n", job.VideoDurationSec, job.VideoFPS, job.VideoResolution)
	}
	fmt.Fprintf(out, "Input:      %s\n", dash(job.InputVideoURI))
	fmt.Fprintf(out, "Steps:      %s\n", dash(job.StepsJSONURI))
	fmt.Fprintf(out, "Slides:     %s\n", dash(job.SlidesURI))
	fmt.Fprintf(out, "Frames:     %s\n", dash(job.FramesPrefixURI))
	if job.Status == jobs.StatusFailed {
		fmt.Fprintf(out, "Error:      %s: %s\n", job.ErrorCode, job.ErrorMessage)
	}
	fmt.Fprintf(out, "Trace:      %s\n", dash(job.TraceID))
	fmt.Fprintf(out, "Created:    %s\n", formatWhen(job.CreatedAt))
	fmt.Fprintf(out, "Updated:    %s\n", formatWhen(job.UpdatedAt))
}

func newJobsCreateCommand(cctx *commandContext) *cobra.Command {
	var title, goal, lang, titlePrefix string

	cmd := &cobra.Command{
		Use:   "create <video-file>...",
		Short: "Create conversion jobs from video files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				out := cmd.OutOrStdout()

				if len(args) == 1 {
					job, err := createFromFile(ctx, service, args[0], title, goal, lang)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Job %s created (%s)\n", job.ID, dash(job.Title))
					return nil
				}

				inputs := make([]api.BatchInput, 0, len(args))
				closers := make([]*os.File, 0, len(args))
				defer func() {
					for _, f := range closers {
						f.Close()
					}
				}()
				for _, path := range args {
					file, info, err := openUpload(path)
					if err != nil {
						return err
					}
					closers = append(closers, file)
					inputs = append(inputs, api.BatchInput{
						FileName: filepath.Base(path),
						Size:     info.Size(),
						Body:     file,
					})
				}

				result, err := service.CreateBatch(ctx, api.BatchRequest{
					TitlePrefix: titlePrefix,
					Goal:        goal,
					Language:    lang,
					Inputs:      inputs,
				})
				if err != nil {
					return err
				}
				for _, job := range result.Jobs {
					fmt.Fprintf(out, "Job %s created (%s)\n", job.ID, dash(job.Title))
				}
				for _, failure := range result.Errors {
					fmt.Fprintf(out, "%s: %v\n", failure.FileName, failure.Err)
				}
				if len(result.Errors) > 0 {
					return fmt.Errorf("%d of %d inputs rejected", len(result.Errors), len(args))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Job title (single file; defaults to the file name)")
	cmd.Flags().StringVar(&titlePrefix, "title-prefix", "", "Title prefix for batch creation")
	cmd.Flags().StringVar(&goal, "goal", "", "What the manual should teach")
	cmd.Flags().StringVar(&lang, "language", "", "Manual language (defaults to the configured language)")
	return cmd
}

func createFromFile(ctx context.Context, service *api.JobService, path, title, goal, lang string) (*jobs.Job, error) {
	file, info, err := openUpload(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := filepath.Base(path)
	if title == "" {
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return service.CreateJob(ctx, api.CreateRequest{
		Title:    title,
		Goal:     goal,
		Language: lang,
		FileName: name,
		Size:     info.Size(),
		Body:     file,
	})
}

func openUpload(path string) (*os.File, os.FileInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}
	return file, info, nil
}

func newJobsCancelCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a queued or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				job, err := service.CancelJob(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s canceled\n", shortID(job.ID))
				return nil
			})
		},
	}
}

func newJobsRetryCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Requeue a failed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				job, err := service.RetryJob(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s requeued (trace %s)\n", shortID(job.ID), job.TraceID)
				return nil
			})
		},
	}
}

func newJobsRegenerateCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <job-id>",
		Short: "Rebuild the slide deck from the current step document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				job, err := service.RegenerateSlides(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Slide regeneration queued for job %s\n", shortID(job.ID))
				return nil
			})
		},
	}
}
