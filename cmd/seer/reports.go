package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/render"
)

func (c *cli) reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"report"},
		Short:   "Read and download finished reports",
	}
	cmd.AddCommand(c.reportsListCmd(), c.reportsShowCmd(), c.reportsDownloadCmd())
	return cmd
}

func (c *cli) reportsListCmd() *cobra.Command {
	var (
		job, profile string
		limit        int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports, optionally of one job or profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			var reports []api.Report
			switch {
			case job != "":
				reports, err = client.JobReports(ctx, api.ID(job))
			case profile != "":
				reports, err = client.ProfileReports(ctx, api.ID(profile))
			default:
				reports, err = api.Collect(ctx, limit, client.ListReports)
			}
			if err != nil {
				return fmt.Errorf("list reports: %w", err)
			}
			rows := make([][]string, len(reports))
			for i, r := range reports {
				rows[i] = []string{r.ID.String(), r.JobID.String(), r.ProfileID.String(), r.ExpertSystem.Label(), formatTime(r.CreatedAt)}
			}
			renderTable(c.out, []string{"ID", "Job", "Profile", "Analysis", "Created"}, rows)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&job, "job", "", "only reports of this job")
	f.StringVar(&profile, "profile", "", "only reports of this profile")
	f.IntVar(&limit, "limit", 20, "maximum reports to list (0 = all)")
	return cmd
}

func (c *cli) reportsShowCmd() *cobra.Command {
	var (
		width    int
		style    string
		markdown bool
	)
	cmd := &cobra.Command{
		Use:   "show <report-id>",
		Short: "Render a report in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			content, err := client.ReportContent(ctx, api.ID(args[0]))
			if err != nil {
				return fmt.Errorf("get report %s: %w", args[0], err)
			}
			if markdown {
				doc, err := render.Document(content)
				if err != nil {
					return fmt.Errorf("render report %s: %w", args[0], err)
				}
				c.printf("%s", doc)
				return nil
			}

			opts := render.Options{Width: width, Style: style}
			if opts.Width <= 0 {
				opts.Width = c.termWidth()
			}
			if opts.Style == "" && !c.isTerminal() {
				opts.Style = "notty"
			}
			body, err := render.Report(content, opts)
			if err != nil {
				c.log.Warn("styled render failed, printing plain text", zap.Error(err))
				plain, perr := render.Document(content)
				if perr != nil {
					return fmt.Errorf("render report %s: %w", args[0], errors.Join(err, perr))
				}
				body = plain
			}
			c.printf("%s", body)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&width, "width", 0, "wrap width (default terminal width)")
	f.StringVar(&style, "style", "", "glamour style: dark, light, notty, ...")
	f.BoolVar(&markdown, "markdown", false, "print the Markdown source instead of rendering it")
	return cmd
}

func (c *cli) reportsDownloadCmd() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "download <report-id>",
		Short: "Save a report as PDF or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "pdf" && format != "html" {
				return fmt.Errorf("unknown format %q: use pdf or html", format)
			}
			id := api.ID(args[0])
			client, err := c.api(cmd.Context())
			if err != nil {
				return err
			}

			if output == "-" {
				return c.download(cmd, client, id, format, c.out)
			}
			if output == "" {
				output = fmt.Sprintf("report-%s.%s", id, format)
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := c.download(cmd, client, id, format, f); err != nil {
				_ = f.Close()
				_ = os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(c.errOut, "%s Saved %s\n", okStyle.Render("✓"), output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", "pdf", "pdf or html")
	f.StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default report-<id>.<format>)`)
	return cmd
}

func (c *cli) download(cmd *cobra.Command, client *api.Client, id api.ID, format string, w io.Writer) error {
	var err error
	if format == "html" {
		err = client.DownloadHTML(cmd.Context(), id, w)
	} else {
		err = client.DownloadPDF(cmd.Context(), id, w)
	}
	if err != nil {
		return fmt.Errorf("download report %s: %w", id, err)
	}
	return nil
}

func (c *cli) isTerminal() bool {
	f, ok := c.out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *cli) termWidth() int {
	if f, ok := c.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return min(w, 120)
		}
	}
	return 80
}
