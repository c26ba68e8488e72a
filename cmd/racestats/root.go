package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/okian/halfpace/internal/adapters/repository"
	service "github.com/okian/halfpace/internal/app"
	"github.com/okian/halfpace/internal/config"
	"github.com/okian/halfpace/pkg/logger"
	"github.com/spf13/cobra"
)

// cli carries the persistent flags shared by all subcommands.
type cli struct {
	out     io.Writer
	data    string
	country string
	verbose bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "racestats",
		Short:         "Query historical half-marathon results",
		Long:          `racestats loads a results CSV and prints category statistics, rankings and winners as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// Logs go to stderr so stdout carries only JSON.
			if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
				return err
			}
			level := "warn"
			if c.verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}

	defaults := config.New(context.Background())
	root.PersistentFlags().StringVar(&c.data, "data", defaults.DataFile, "results CSV file")
	root.PersistentFlags().StringVar(&c.country, "default-country", repository.DefaultCountry, "country code for rows without one")
	root.PersistentFlags().BoolVar(&c.verbose, "verbose", false, "log loader diagnostics to stderr")

	root.AddCommand(
		c.summaryCmd(),
		c.categorizeCmd(),
		c.statsCmd(),
		c.rankCmd(),
		c.topCmd(),
		c.winnersCmd(),
		c.averagesCmd(),
		c.predictCmd(),
	)
	return root
}

// service loads the dataset named by --data into a started service.
func (c *cli) service(ctx context.Context) (*service.Service, error) {
	src := repository.NewCSVSource(c.data,
		repository.WithDefaultCountry(c.country),
		repository.WithLogger(logger.Named("repository")),
	)
	svc := service.New(service.WithSource(src), service.WithLogger(logger.Named("racestats")))
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("load %s: %w", c.data, err)
	}
	return svc, nil
}

// run starts a service, calls fn and prints its result.
func run[T any](cmd *cobra.Command, c *cli, fn func(ctx context.Context, svc *service.Service) (T, error)) error {
	ctx := cmd.Context()
	svc, err := c.service(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	v, err := fn(ctx, svc)
	if err != nil {
		return err
	}
	return c.print(v)
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
