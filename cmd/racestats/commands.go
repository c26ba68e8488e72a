package main

import (
	"context"
	"fmt"
	"strings"

	service "github.com/okian/halfpace/internal/app"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/stats"
	"github.com/okian/halfpace/internal/domain/timefmt"
	"github.com/okian/halfpace/internal/domain/types"
	"github.com/spf13/cobra"
)

func parseGender(s string, required bool) (model.Gender, error) {
	if s == "" && !required {
		return "", nil
	}
	return model.ParseGender(s)
}

func (c *cli) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print dataset size per edition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, c, func(ctx context.Context, svc *service.Service) (types.DatasetSummary, error) {
				return svc.Summary(ctx)
			})
		},
	}
}

func (c *cli) categorizeCmd() *cobra.Command {
	var (
		age    int
		gender string
	)
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Print the age category for an age and gender",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			g, err := parseGender(gender, true)
			if err != nil {
				return err
			}
			// No dataset needed; an unstarted service still validates input.
			code, err := service.New().Categorize(context.Background(), age, g)
			if err != nil {
				return err
			}
			return c.print(map[string]any{"age": age, "gender": g, "category": code})
		},
	}
	cmd.Flags().IntVar(&age, "age", 0, "runner age")
	cmd.Flags().StringVar(&gender, "gender", "", "M or K")
	_ = cmd.MarkFlagRequired("age")
	_ = cmd.MarkFlagRequired("gender")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	var (
		code   string
		gender string
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print finish time statistics of a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := parseGender(gender, true)
			if err != nil {
				return err
			}
			return run(cmd, c, func(ctx context.Context, svc *service.Service) (types.CategoryStats, error) {
				return svc.CategoryStats(ctx, strings.ToUpper(code), g)
			})
		},
	}
	cmd.Flags().StringVar(&code, "category", "", "category code, e.g. M30")
	cmd.Flags().StringVar(&gender, "gender", "", "M or K")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("gender")
	return cmd
}

func (c *cli) rankCmd() *cobra.Command {
	var (
		finish string
		gender string
		code   string
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print the estimated position of a finish time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := parseGender(gender, true)
			if err != nil {
				return err
			}
			seconds, err := timefmt.ParseDuration(finish)
			if err != nil {
				return fmt.Errorf("time: %w", err)
			}
			return run(cmd, c, func(ctx context.Context, svc *service.Service) (types.RankingEstimate, error) {
				return svc.Ranking(ctx, seconds, g, strings.ToUpper(code))
			})
		},
	}
	cmd.Flags().StringVar(&finish, "time", "", "finish time in seconds or H:MM:SS")
	cmd.Flags().StringVar(&gender, "gender", "", "M or K")
	cmd.Flags().StringVar(&code, "category", "", "rank within a category instead of the whole gender")
	_ = cmd.MarkFlagRequired("time")
	_ = cmd.MarkFlagRequired("gender")
	return cmd
}

func (c *cli) topCmd() *cobra.Command {
	var (
		limit  int
		year   int
		gender string
	)
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Print the fastest results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := parseGender(gender, false)
			if err != nil {
				return err
			}
			return run(cmd, c, func(ctx context.Context, svc *service.Service) ([]types.Result, error) {
				return svc.Top(ctx, limit, stats.TopFilter{Year: year, Gender: g})
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", stats.DefaultTopN, "number of results")
	cmd.Flags().IntVar(&year, "year", 0, "restrict to one edition")
	cmd.Flags().StringVar(&gender, "gender", "", "restrict to M or K")
	return cmd
}

func (c *cli) winnersCmd() *cobra.Command {
	var (
		code   string
		gender string
	)
	cmd := &cobra.Command{
		Use:   "winners",
		Short: "Print the fastest result of every year, gender and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := parseGender(gender, false)
			if err != nil {
				return err
			}
			return run(cmd, c, func(ctx context.Context, svc *service.Service) ([]types.Result, error) {
				return svc.Winners(ctx, strings.ToUpper(code), g)
			})
		},
	}
	cmd.Flags().StringVar(&code, "category", "", "restrict to a category code")
	cmd.Flags().StringVar(&gender, "gender", "", "restrict to M or K")
	return cmd
}

func (c *cli) averagesCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "averages",
		Short: "Print mean finish times per group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var byCategory bool
			switch group {
			case "category":
				byCategory = true
			case "gender":
			default:
				return fmt.Errorf("group must be category or gender, got %q", group)
			}
			return run(cmd, c, func(ctx context.Context, svc *service.Service) ([]types.GroupAverage, error) {
				return svc.Averages(ctx, byCategory)
			})
		},
	}
	cmd.Flags().StringVar(&group, "group", "category", "category or gender")
	return cmd
}

func (c *cli) predictCmd() *cobra.Command {
	var (
		name   string
		gender string
		age    int
		split  string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Print a prediction report using the built-in linear model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := parseGender(gender, true)
			if err != nil {
				return err
			}
			seconds, err := timefmt.ParseDuration(split)
			if err != nil {
				return fmt.Errorf("5k: %w", err)
			}
			return run(cmd, c, func(ctx context.Context, svc *service.Service) (types.Report, error) {
				return svc.Predict(ctx, service.PredictionRequest{
					Name: name, Gender: g, Age: age, Time5kSeconds: seconds,
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "runner", "runner name")
	cmd.Flags().StringVar(&gender, "gender", "", "M or K")
	cmd.Flags().IntVar(&age, "age", 0, "runner age")
	cmd.Flags().StringVar(&split, "5k", "", "5 km time in seconds or MM:SS")
	_ = cmd.MarkFlagRequired("gender")
	_ = cmd.MarkFlagRequired("age")
	_ = cmd.MarkFlagRequired("5k")
	return cmd
}
