package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"preupgrade/internal/domain"
	"preupgrade/internal/reportview"
)

type showOptions struct {
	job       int64
	search    string
	order     string
	page      int
	perPage   int
	expandAll bool
	output    string
}

func newShowCmd(root *rootOptions) *cobra.Command {
	opts := &showOptions{}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print one page of a job run's preupgrade report",
		Example: `  preupgrade show --job 42
  preupgrade show --job 42 --search "severity = high" --order "title asc" --expand-all
  preupgrade show --job 42 --per-page 50 --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.output {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("invalid --output %q, want table, json or yaml", opts.output)
			}
			panelOpts, err := opts.panelOptions()
			if err != nil {
				return err
			}

			c, cfg, err := root.connect()
			if err != nil {
				return err
			}
			if opts.perPage == 0 && cfg.PerPage > 0 {
				panelOpts = append(panelOpts, reportview.WithPerPage(cfg.PerPage))
			}

			ctx := cmd.Context()
			run, err := c.JobRun(ctx, opts.job)
			if err != nil {
				return fmt.Errorf("job run %d: %w", opts.job, err)
			}
			p := reportview.NewPanel(run, panelOpts...)
			if !p.Applies() {
				return fmt.Errorf("job run %d did not run the preupgrade template", run.ID)
			}
			reportview.Run(ctx, c, p, p.Expand())
			if opts.expandAll {
				p.ExpandAll()
			}
			v := p.View()
			if v.ErrorMessage != "" {
				return fmt.Errorf("%s", v.ErrorMessage)
			}
			return render(cmd.OutOrStdout(), run, v, opts.output)
		},
	}
	f := cmd.Flags()
	f.Int64Var(&opts.job, "job", 0, "job invocation id")
	f.StringVar(&opts.search, "search", "", "scoped search, e.g. \"severity = high\"")
	f.StringVar(&opts.order, "order", "", "sort as \"<column> <asc|desc>\" (title, hostname, severity)")
	f.IntVar(&opts.page, "page", 1, "page number")
	f.IntVar(&opts.perPage, "per-page", 0, "entries per page")
	f.BoolVar(&opts.expandAll, "expand-all", false, "print the details of every entry")
	f.StringVarP(&opts.output, "output", "o", "table", "output format: table, json or yaml")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func (o *showOptions) panelOptions() ([]reportview.Option, error) {
	opts := []reportview.Option{reportview.WithPage(o.page)}
	if o.search != "" {
		opts = append(opts, reportview.WithSearch(o.search))
	}
	if o.perPage > 0 {
		opts = append(opts, reportview.WithPerPage(o.perPage))
	}
	if o.order != "" {
		s, err := reportview.ParseSortSpec(o.order)
		if err != nil {
			return nil, err
		}
		if !reportview.Sortable(s.Column) {
			return nil, fmt.Errorf("cannot sort by %q", s.Column)
		}
		opts = append(opts, reportview.WithSort(s))
	}
	return opts, nil
}

type detailOut struct {
	Label string `json:"label" yaml:"label"`
	Text  string `json:"text" yaml:"text"`
}

type entryOut struct {
	ID             int64       `json:"id" yaml:"id"`
	Title          string      `json:"title" yaml:"title"`
	Hostname       string      `json:"hostname" yaml:"hostname"`
	RiskFactor     string      `json:"risk_factor" yaml:"risk_factor"`
	HasRemediation bool        `json:"has_remediation" yaml:"has_remediation"`
	Inhibitor      bool        `json:"inhibitor" yaml:"inhibitor"`
	Details        []detailOut `json:"details,omitempty" yaml:"details,omitempty"`
}

type reportOut struct {
	JobInvocationID int64      `json:"job_invocation_id" yaml:"job_invocation_id"`
	ReportID        int64      `json:"report_id,omitempty" yaml:"report_id,omitempty"`
	Hostname        string     `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Search          string     `json:"search" yaml:"search"`
	Sort            string     `json:"sort" yaml:"sort"`
	Page            int        `json:"page" yaml:"page"`
	PerPage         int        `json:"per_page" yaml:"per_page"`
	Pages           int        `json:"pages" yaml:"pages"`
	Total           int        `json:"total" yaml:"total"`
	Message         string     `json:"message,omitempty" yaml:"message,omitempty"`
	Entries         []entryOut `json:"entries" yaml:"entries"`
}

func cell(v reportview.View, row reportview.Row, key string) reportview.Cell {
	for i, c := range v.Columns {
		if c.Key == key && i < len(row.Cells) {
			return row.Cells[i]
		}
	}
	return reportview.Cell{}
}

func newReportOut(run domain.JobRun, v reportview.View) reportOut {
	out := reportOut{
		JobInvocationID: run.ID,
		ReportID:        v.ReportID,
		Hostname:        v.Hostname,
		Search:          v.Search,
		Sort:            v.Sort.String(),
		Page:            v.Page,
		PerPage:         v.PerPage,
		Pages:           v.Pages,
		Total:           v.Total,
		Message:         v.EmptyMessage,
		Entries:         make([]entryOut, 0, len(v.Rows)),
	}
	for _, row := range v.Rows {
		e := entryOut{
			ID:             row.ID,
			Title:          cell(v, row, "title").Text,
			Hostname:       cell(v, row, "hostname").Text,
			RiskFactor:     cell(v, row, "severity").Text,
			HasRemediation: cell(v, row, "has_remediation").Flag,
			Inhibitor:      cell(v, row, "inhibitor").Flag,
		}
		if row.Expanded {
			for _, d := range reportview.Details(row.Entry) {
				e.Details = append(e.Details, detailOut(d))
			}
		}
		out.Entries = append(out.Entries, e)
	}
	return out
}

func render(w io.Writer, run domain.JobRun, v reportview.View, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newReportOut(run, v))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newReportOut(run, v)); err != nil {
			return err
		}
		return enc.Close()
	}
	return renderTable(w, run, v)
}

func renderTable(w io.Writer, run domain.JobRun, v reportview.View) error {
	header := fmt.Sprintf("Preupgrade report of job run %d", run.ID)
	if v.ReportID != 0 {
		header += fmt.Sprintf(", report %d", v.ReportID)
		if v.Hostname != "" {
			header += " (" + v.Hostname + ")"
		}
	}
	fmt.Fprintln(w, header)
	if v.Search != "" {
		fmt.Fprintf(w, "Search: %s\n", v.Search)
	}
	if v.EmptyMessage != "" {
		fmt.Fprintln(w, v.EmptyMessage)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	labels := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		labels[i] = strings.ToUpper(c.Label)
		switch c.Sorted {
		case reportview.Asc:
			labels[i] += " ↑"
		case reportview.Desc:
			labels[i] += " ↓"
		}
	}
	fmt.Fprintln(tw, "ID\t"+strings.Join(labels, "\t"))
	for _, row := range v.Rows {
		texts := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			texts[i] = c.Text
		}
		fmt.Fprintf(tw, "%d\t%s\n", row.ID, strings.Join(texts, "\t"))
		if !row.Expanded {
			continue
		}
		for _, d := range reportview.Details(row.Entry) {
			fmt.Fprintf(tw, "\t  %s: %s\n", d.Label, strings.Join(strings.Fields(d.Text), " "))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Page %d of %d, %d entries, %d per page, sorted by %s\n",
		v.Page, max(v.Pages, 1), v.Total, v.PerPage, v.Sort)
	return err
}
