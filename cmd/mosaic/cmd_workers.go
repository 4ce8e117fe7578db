package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mosaicpim/mosaic/internal/server"
	"github.com/mosaicpim/mosaic/pkg/queue"
	"github.com/mosaicpim/mosaic/pkg/schedule"
)

var queueWorkersFlag int

// mosaic jobs:work — drain the job queue in a dedicated process. Boots the
// full service graph so executions can reach every backing store.
var queueWorkCmd = &cobra.Command{
	Use:   "jobs:work",
	Short: "Start the job queue worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if _, err := server.New(); err != nil {
			return err
		}

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 2
		}

		fmt.Printf("Job worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		queue.StartWorkers(ctx, workers)

		<-ctx.Done()
		fmt.Println("\nJob worker stopped.")
		return nil
	},
}

// mosaic schedule:run — run the artifact retention sweep and any other
// scheduled tasks.
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if _, err := server.New(); err != nil {
			return err
		}

		tasks := schedule.List()
		if len(tasks) == 0 {
			fmt.Println("No scheduled tasks registered.")
		} else {
			fmt.Println("Registered scheduled tasks:")
			for _, t := range tasks {
				fmt.Println("  •", t)
			}
		}

		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		schedule.Start(ctx)

		<-ctx.Done()
		fmt.Println("\nScheduler stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 2, "Number of concurrent workers")
}
