package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"preupgrade/internal/domain"
)

func newRemediationsCmd(root *rootOptions) *cobra.Command {
	var (
		reportID int64
		hostID   int64
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "remediations ENTRY_ID...",
		Short: "Print the remediations of report entries on a host",
		Example: `  preupgrade remediations --report 7 --host-id 3 12 15
  preupgrade remediations --report 7 --host-id 3 --json 12`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := parseID(a, "entry id")
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			c, _, err := root.connect()
			if err != nil {
				return err
			}
			details, err := c.RemediationDetails(cmd.Context(), reportID, ids, hostID)
			if err != nil {
				return fmt.Errorf("report %d: %w", reportID, err)
			}
			var rems []domain.Remediation
			for _, d := range details {
				rems = append(rems, d.Remediations()...)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if rems == nil {
					rems = []domain.Remediation{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rems)
			}
			if len(rems) == 0 {
				fmt.Fprintln(out, "No remediations.")
				return nil
			}
			for _, r := range rems {
				typ := r.Type
				if typ == "" {
					typ = "remediation"
				}
				fmt.Fprintf(out, "%s: %s\n", typ, r.Text())
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&reportID, "report", 0, "preupgrade report id")
	f.Int64Var(&hostID, "host-id", 0, "id of the host the entries belong to")
	f.BoolVar(&asJSON, "json", false, "print the remediations as JSON")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("host-id")
	return cmd
}
