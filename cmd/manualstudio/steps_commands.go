package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"manualstudio/internal/api"
)

func newStepsCommand(cctx *commandContext) *cobra.Command {
	stepsCmd := &cobra.Command{
		Use:   "steps",
		Short: "Read and edit a job's step document",
	}

	stepsCmd.AddCommand(newStepsGetCommand(cctx))
	stepsCmd.AddCommand(newStepsUpdateCommand(cctx))

	return stepsCmd
}

func newStepsGetCommand(cctx *commandContext) *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "get <job-id>",
		Short: "Print a step document (current version by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				entry, err := service.GetSteps(ctx, args[0], version)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), entry.StepsJSON)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Ledger version to fetch (0 = current)")
	return cmd
}

func newStepsUpdateCommand(cctx *commandContext) *cobra.Command {
	var filePath, note string

	cmd := &cobra.Command{
		Use:   "update <job-id>",
		Short: "Append an edited step document as the next version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("read %s: %w", filePath, err)
			}
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				entry, err := service.UpdateSteps(ctx, args[0], data, note)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Version %d recorded for job %s\n", entry.Version, shortID(args[0]))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Path to the edited steps JSON")
	cmd.Flags().StringVar(&note, "note", "", "Edit note stored with the version")
	cmd.MarkFlagRequired("file") //nolint:errcheck
	return cmd
}

func newVersionsCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <job-id>",
		Short: "List a job's step document history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd.Context(), func(ctx context.Context, service *api.JobService) error {
				entries, err := service.ListVersions(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No versions recorded")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						strconv.Itoa(entry.Version),
						entry.EditSource,
						dash(entry.EditNote),
						formatWhen(entry.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"VER", "SOURCE", "NOTE", "CREATED"}, rows, 1))
				return nil
			})
		},
	}
}
