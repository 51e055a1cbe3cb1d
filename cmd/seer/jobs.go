package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/jobs"
)

// statusFetchLimit bounds concurrent status calls of "jobs status".
const statusFetchLimit = 4

func (c *cli) jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Follow and cancel analysis jobs",
	}
	cmd.AddCommand(c.jobsListCmd(), c.jobsStatusCmd(), c.jobsWaitCmd(), c.jobsCancelCmd())
	return cmd
}

func (c *cli) printJobs(list []api.Job) {
	rows := make([][]string, len(list))
	for i, j := range list {
		progress := ""
		if j.State() == api.JobRunning {
			progress = formatPercent(j.Progress)
		}
		rows[i] = []string{j.ID.String(), j.OrderID.String(), j.ExpertSystem.Label(), styledState(j.Status), progress, formatTime(j.StartedAt)}
	}
	renderTable(c.out, []string{"ID", "Order", "Analysis", "State", "Progress", "Started"}, rows)
}

func (c *cli) jobsListCmd() *cobra.Command {
	var (
		order string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, optionally of one order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			var list []api.Job
			if order != "" {
				list, err = client.OrderJobs(ctx, api.ID(order))
			} else {
				list, err = api.Collect(ctx, limit, client.ListJobs)
			}
			if err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}
			c.printJobs(list)
			return nil
		},
	}
	cmd.Flags().StringVar(&order, "order", "", "only jobs of this order")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum jobs to list (0 = all)")
	return cmd
}

func (c *cli) jobsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>...",
		Short: "Fetch the current status of jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			ids := make([]api.ID, len(args))
			for i, a := range args {
				ids[i] = api.ID(a)
			}

			results := jobs.FetchStatuses(ctx, client, ids, statusFetchLimit)
			rows := make([][]string, 0, len(results))
			var failed []error
			for _, r := range results {
				if r.Err != nil {
					if api.IsReauthRequired(r.Err) {
						return r.Err
					}
					failed = append(failed, fmt.Errorf("job %s: %w", r.JobID, r.Err))
					rows = append(rows, []string{r.JobID.String(), errStyle.Render("error"), "", api.Message(r.Err)})
					continue
				}
				rows = append(rows, statusRow(r.JobID, r.Status))
			}
			renderTable(c.out, []string{"ID", "State", "Progress", "Detail"}, rows)
			return errors.Join(failed...)
		},
	}
}

func statusRow(id api.ID, s *api.JobStatus) []string {
	detail := s.CurrentStep
	switch {
	case s.ErrorMessage != "":
		detail = s.ErrorMessage
	case s.State() == api.JobCompleted && s.ResultAvailable:
		detail = "report ready"
	}
	return []string{id.String(), styledState(s.Status), formatPercent(s.Percent()), detail}
}

func (c *cli) jobsWaitCmd() *cobra.Command {
	var (
		interval time.Duration
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "wait <job-id>",
		Short: "Poll a job until it finishes",
		Long: `Poll a job until it completes, fails or is cancelled, printing each
change. Exits non-zero unless the job completed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = c.cfg.PollInterval
			}

			id := api.ID(args[0])
			var last string
			view, err := jobs.Wait(ctx, client, id, jobs.Options{
				Interval: interval,
				Logger:   c.log,
				OnUpdate: func(v jobs.View) {
					var line string
					switch {
					case v.Err != nil:
						line = "poll failed: " + api.Message(v.Err)
					case v.Status != nil:
						line = fmt.Sprintf("%s %s", styledState(v.Status.Status), formatPercent(v.Progress()))
						if v.Status.CurrentStep != "" {
							line += "  " + v.Status.CurrentStep
						}
					default:
						return
					}
					if line != last {
						c.printf("%s  %s\n", time.Now().Format("15:04:05"), line)
						last = line
					}
				},
			})
			if err != nil {
				return fmt.Errorf("wait for job %s: %w", id, err)
			}
			switch view.State() {
			case api.JobCompleted:
				c.printf("%s Job %s completed. Read it with `seer reports list --job %s`.\n", okStyle.Render("✓"), id, id)
				return nil
			case api.JobFailed:
				return fmt.Errorf("job %s failed: %s", id, view.Status.ErrorMessage)
			default:
				return fmt.Errorf("job %s ended %s", id, view.State())
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long (0 = never)")
	return cmd
}

func (c *cli) jobsCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a queued or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.api(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.CancelJob(cmd.Context(), api.ID(args[0])); err != nil {
				return fmt.Errorf("cancel job %s: %w", args[0], err)
			}
			c.printf("Cancelled job %s\n", args[0])
			return nil
		},
	}
}
