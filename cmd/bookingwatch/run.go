package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/use-agent/bookingwatch/job"
	"github.com/use-agent/bookingwatch/models"
)

var outputFormat string

func init() {
	runCmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "output format: json (one result per line) or table")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [url...]",
	Short: "Runs one pass over the given URLs, or the configured targets when none are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat != "json" && outputFormat != "table" {
			return fmt.Errorf("unknown output format %q (want json or table)", outputFormat)
		}

		targets := args
		if len(targets) == 0 {
			targets = cfg.Targets
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.close()

		return runTargets(cmd, a.newJob(cfg), targets, outputFormat)
	},
}

// runTargets prints results as they arrive in json mode and as one table
// at the end in table mode. Failed targets are reported on stderr.
func runTargets(cmd *cobra.Command, j *job.Job, targets []string, format string) error {
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	var (
		rows   []*models.JobResult
		failed int
	)
	for result, err := range j.Run(cmd.Context(), targets) {
		if err != nil {
			failed++
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			continue
		}
		if format == "table" {
			rows = append(rows, result)
			continue
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	if format == "table" {
		renderTable(out, rows)
	}
	if failed > 0 {
		return errTargetsFailed
	}
	return nil
}

func renderTable(w io.Writer, results []*models.JobResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Hotel", "Price", "Status", "URL"})
	for _, r := range results {
		t.AppendRow(table.Row{
			orDash(r.HotelName),
			orDash(r.Price),
			strconv.Itoa(r.Status),
			r.URL,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func orDash(s *string) string {
	if v := models.StringValue(s); v != "" {
		return v
	}
	return "-"
}
