package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dirroute/dirroute/pkg/goloader"
	"github.com/dirroute/dirroute/pkg/router"
)

func routesCmd() *cobra.Command {
	var (
		dir    string
		root   string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the resolved route table",
		Long: `Resolve the route tree and print every registration with its
middleware chain depth. Handlers are read from the route files'
declarations; the application itself is not loaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(dir, root, prefix)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			regs, err := router.New(cfg.RootPath(), goloader.Static(),
				router.WithPrefix(cfg.Prefix),
				router.WithInclude(cfg.Include...),
				router.WithExclude(cfg.Exclude...),
				router.WithLogger(logger),
			).Resolve()
			if err != nil {
				return err
			}

			if len(regs) == 0 {
				fmt.Println("no routes found")
				return nil
			}

			width := 0
			for _, reg := range regs {
				if len(reg.Method) > width {
					width = len(reg.Method)
				}
			}
			for _, reg := range regs {
				line := fmt.Sprintf("%-*s  %s", width, reg.Method, reg.Path)
				var notes []string
				if n := len(reg.Chain); n > 0 {
					notes = append(notes, fmt.Sprintf("%d middleware", n))
				}
				if reg.Deprecated {
					notes = append(notes, "deprecated")
				}
				if len(notes) > 0 {
					line += "  (" + strings.Join(notes, ", ") + ")"
				}
				fmt.Println(line)
			}
			fmt.Printf("\n%d routes\n", len(regs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Project directory containing dirroute.yaml")
	cmd.Flags().StringVar(&root, "root", "", "Route tree directory (overrides config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "URL prefix (overrides config)")

	return cmd
}
