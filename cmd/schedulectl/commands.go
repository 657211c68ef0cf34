package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"servicehub/internal/common"
	"servicehub/internal/recurrence"
	"servicehub/internal/utility"
)

var (
	dateColor  = color.New(color.FgHiBlue)
	labelColor = color.New(color.FgYellow)
	mutedColor = color.New(color.FgHiBlack)
)

func parseWindow(from, to string) (time.Time, time.Time, error) {
	start, err := utility.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, common.ValidationError("--from must be YYYY-MM-DD", from)
	}
	end, err := utility.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, common.ValidationError("--to must be YYYY-MM-DD", to)
	}
	return start, end, nil
}

func newPreviewCmd() *cobra.Command {
	var rule, from, to string
	var exclusions []string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "List the occurrence days of a rule within a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseWindow(from, to)
			if err != nil {
				return err
			}
			return preview(cmd.OutOrStdout(), rule, exclusions, start, end)
		},
	}
	cmd.Flags().StringVar(&rule, "rule", "", "RFC 5545 rule, DTSTART and RRULE lines separated by \\n")
	cmd.Flags().StringArrayVar(&exclusions, "exclude", nil, "exclusion rule, repeatable")
	cmd.Flags().StringVar(&from, "from", "", "first day of the window")
	cmd.Flags().StringVar(&to, "to", "", "last day of the window")
	_ = cmd.MarkFlagRequired("rule")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func preview(w io.Writer, rule string, exclusions []string, start, end time.Time) error {
	days, err := recurrence.ExpandOccurrences(rule, exclusions, start, end)
	if err != nil {
		return err
	}
	n := 0
	for d := range days {
		dateColor.Fprintf(w, "%s", utility.FormatDate(d))
		fmt.Fprintf(w, " %s\n", d.Weekday())
		n++
	}
	mutedColor.Fprintf(w, "%d occurrence(s)\n", n)
	return nil
}

func newSummariesCmd() *cobra.Command {
	var file, from, to string
	cmd := &cobra.Command{
		Use:   "summaries",
		Short: "Project visits read from a JSON file onto the days of a window",
		Long: `Reads a JSON array of visits, each {"visitId","status","startDate","startTime","rule",
"exclusions":[...],"lineItems":[{"quantity","unitPrice"}]}, and prints one line per occurrence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseWindow(from, to)
			if err != nil {
				return err
			}
			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return summaries(cmd.OutOrStdout(), in, start, end)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "visits JSON file, - for stdin")
	cmd.Flags().StringVar(&from, "from", "", "first day of the window")
	cmd.Flags().StringVar(&to, "to", "", "last day of the window")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

type visitJSON struct {
	VisitID    string               `json:"visitId"`
	Status     string               `json:"status"`
	StartDate  string               `json:"startDate"`
	StartTime  string               `json:"startTime"`
	Rule       string               `json:"rule"`
	Exclusions []string             `json:"exclusions"`
	LineItems  []utility.PricedLine `json:"lineItems"`
}

func summaries(w io.Writer, r io.Reader, start, end time.Time) error {
	var visits []visitJSON
	if err := json.NewDecoder(r).Decode(&visits); err != nil {
		return common.ValidationError("visits must be a JSON array", err.Error())
	}
	schedules := make([]recurrence.VisitSchedule, len(visits))
	for i, v := range visits {
		schedules[i] = recurrence.VisitSchedule(v)
	}
	out, err := recurrence.ComputeVisitSummaries(schedules, start, end)
	if err != nil {
		return err
	}
	for _, s := range out {
		dateColor.Fprintf(w, "%s", s.OccurrenceDate)
		fmt.Fprintf(w, " %-5s %-24s %-14s %s\n", s.StartTime, s.VisitID, s.Status, s.TotalPrice.StringFixed(2))
	}
	mutedColor.Fprintf(w, "%d occurrence(s)\n", len(out))
	return nil
}

func newSplitCmd() *cobra.Command {
	var rule, date string
	var exclusions []string
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Preview the rules a this-and-following edit would write",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := utility.ParseDate(date)
			if err != nil {
				return common.ValidationError("--date must be YYYY-MM-DD", date)
			}
			return split(cmd.OutOrStdout(), recurrence.SplitInput{Rule: rule, Exclusions: exclusions, SplitDate: day})
		},
	}
	cmd.Flags().StringVar(&rule, "rule", "", "rule of the series")
	cmd.Flags().StringArrayVar(&exclusions, "exclude", nil, "exclusion rule, repeatable")
	cmd.Flags().StringVar(&date, "date", "", "day of the edited occurrence")
	_ = cmd.MarkFlagRequired("rule")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func split(w io.Writer, in recurrence.SplitInput) error {
	plan, err := recurrence.PlanSplit(in)
	if err != nil {
		return err
	}
	labelColor.Fprintln(w, "truncated:")
	fmt.Fprintln(w, plan.TruncatedRule)
	if plan.SuccessorRule == "" {
		mutedColor.Fprintln(w, "no occurrences left from the split date")
		return nil
	}
	labelColor.Fprintln(w, "successor:")
	fmt.Fprintln(w, plan.SuccessorRule)
	for _, x := range plan.SuccessorExclusions {
		labelColor.Fprint(w, "exclude: ")
		fmt.Fprintln(w, x)
	}
	if !plan.SuccessorEnd.IsZero() {
		labelColor.Fprint(w, "ends: ")
		fmt.Fprintln(w, utility.FormatDate(plan.SuccessorEnd))
	}
	return nil
}
