package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirroute/dirroute/pkg/goloader"
	"github.com/dirroute/dirroute/pkg/router"
)

func checkCmd() *cobra.Command {
	var (
		dir    string
		root   string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the route tree",
		Long: `Resolve the route tree and fail on the first problem: malformed
segment names, duplicate routes, middleware contract violations or
invalid route file exports. Exits non-zero on failure, so it can gate
CI pipelines.`,
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

			fmt.Printf("\033[32m✓\033[0m %d routes resolved, no conflicts\n", len(regs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Project directory containing dirroute.yaml")
	cmd.Flags().StringVar(&root, "root", "", "Route tree directory (overrides config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "URL prefix (overrides config)")

	return cmd
}
