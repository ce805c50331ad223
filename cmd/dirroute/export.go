package main

import (
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/dirroute/dirroute/pkg/goloader"
	"github.com/dirroute/dirroute/pkg/manifest"
	"github.com/dirroute/dirroute/pkg/router"
)

func exportCmd() *cobra.Command {
	var (
		dir    string
		root   string
		prefix string
		out    string
		bucket string
		key    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Publish the route manifest",
		Long: `Resolve the route tree, render a deterministic JSON manifest and
publish it to a local directory or an S3 bucket.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(dir, root, prefix)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			if out != "" {
				cfg.Export.Dir = out
			}
			if bucket != "" {
				cfg.Export.Bucket = bucket
			}
			if key != "" {
				cfg.Export.KeyPrefix = key
			}

			regs, err := router.New(cfg.RootPath(), goloader.Static(),
				router.WithPrefix(cfg.Prefix),
				router.WithInclude(cfg.Include...),
				router.WithExclude(cfg.Exclude...),
				router.WithLogger(logger),
			).Resolve()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var store manifest.Store
			switch {
			case cfg.Export.Bucket != "":
				awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
				if err != nil {
					return fmt.Errorf("load AWS config: %w", err)
				}
				store = manifest.NewS3Store(s3.NewFromConfig(awsCfg),
					cfg.Export.Bucket, cfg.Export.KeyPrefix)
			case cfg.Export.Dir != "":
				store = manifest.NewDirStore(cfg.Export.Dir)
			default:
				return fmt.Errorf("no export target: set --out or --bucket, or configure export in %s",
					"dirroute.yaml")
			}

			if err := manifest.Publish(ctx, store, cfg.Export.Name, manifest.Build(regs)); err != nil {
				return err
			}
			fmt.Printf("\033[32m✓\033[0m exported %d routes to %s\n", len(regs), cfg.Export.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Project directory containing dirroute.yaml")
	cmd.Flags().StringVar(&root, "root", "", "Route tree directory (overrides config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "URL prefix (overrides config)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Local output directory")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket to publish to")
	cmd.Flags().StringVar(&key, "key-prefix", "", "S3 key prefix")

	return cmd
}
