package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"preupgrade/internal/client"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	var (
		job  int64
		req  client.ImportRequest
		wait bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Upload a leapp-report.json for a host of a job run",
		Long: `Upload a leapp-report.json produced by "leapp preupgrade" on a host. FILE may
be "-" to read standard input. Without --wait the server queues the import and
the command prints its id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if !json.Valid(data) {
				return fmt.Errorf("%s is not valid JSON", args[0])
			}
			req.Report = data

			c, _, err := root.connect()
			if err != nil {
				return err
			}
			res, err := c.Import(cmd.Context(), job, req, wait)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Report == nil {
				fmt.Fprintf(out, "queued import %d\n", res.ImportID)
				return nil
			}
			fmt.Fprintf(out, "imported report %d for %s: %d entries, status %s\n",
				res.Report.Report.ID, res.Report.Report.Hostname, res.Report.Total, res.Report.Report.Status)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&job, "job", 0, "job invocation id")
	f.Int64Var(&req.HostID, "host-id", 0, "id of the host the report comes from")
	f.StringVar(&req.Hostname, "hostname", "", "hostname of the host the report comes from")
	f.StringVar(&req.TemplateName, "template", "", "job template name, for job runs the server does not know yet")
	f.BoolVar(&wait, "wait", false, "process the import before returning")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("hostname")
	return cmd
}

func newImportStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import-status ID",
		Short: "Show the state of a queued import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "import id")
			if err != nil {
				return err
			}
			c, _, err := root.connect()
			if err != nil {
				return err
			}
			imp, err := c.ImportStatus(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "import %d (job run %d): %s\n", imp.ID, imp.JobInvocationID, imp.Status)
			if imp.ReportID != nil {
				fmt.Fprintf(out, "report: %d\n", *imp.ReportID)
			}
			if imp.Error != "" {
				fmt.Fprintf(out, "error: %s\n", imp.Error)
			}
			return nil
		},
	}
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}
