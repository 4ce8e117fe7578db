package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mosaicpim/mosaic/app/controllers"
	"github.com/mosaicpim/mosaic/app/routes"
	"github.com/mosaicpim/mosaic/internal/server"
	"github.com/mosaicpim/mosaic/pkg/router"
)

// mosaic serve — boot and run the API server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv, err := server.New()
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	},
}

// mosaic route:list — print all registered routes without connecting to
// any backing store.
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New()
		routes.Register(r, routes.Controllers{
			Auth:     controllers.NewAuthController(),
			Settings: &controllers.SettingsController{},
			Products: &controllers.ProductController{},
			Jobs:     &controllers.JobController{},
		})

		infos := r.Routes()
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Path != infos[j].Path {
				return infos[i].Path < infos[j].Path
			}
			return infos[i].Method < infos[j].Method
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
