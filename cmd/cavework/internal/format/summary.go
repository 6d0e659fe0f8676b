// Copyright 2025 Cavework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/cavework/cavework/pkg/sim"
	"github.com/cavework/cavework/pkg/stringutil"
)

const maxScenarioName = 48

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("57")).
			Padding(0, 1)
)

// reportJSON is the JSON shape of a run report.
type reportJSON struct {
	Success  bool   `json:"success"`
	Scenario string `json:"scenario"`
	sim.Report
}

// PrintReport prints a run summary:
//
//	Scenario two rooms  run 5f0c…
//	ticks 42  miners 2  stored 4  pending 0  quiescent yes  1.2ms
//
//	CATEGORY          COMPLETED  FAILED
//	cavework:hauling  4          0
//	cavework:mining   4          1
func (f *formatter) PrintReport(scenario string, report sim.Report) error {
	if f.mode == ModeJSON {
		return f.PrintJSON(reportJSON{Success: true, Scenario: scenario, Report: report})
	}
	if f.quiet {
		_, err := fmt.Fprintf(f.stdout, "%d stored in %d ticks\n", report.Stored, report.Ticks)
		return err
	}

	header := fmt.Sprintf("Scenario %s", stringutil.Ellipsis(scenario, maxScenarioName))
	runID := fmt.Sprintf("run %s", report.RunID)
	stats := fmt.Sprintf("ticks %d  miners %d  stored %d  pending %d  quiescent %s  %s",
		report.Ticks, report.Miners, report.Stored, report.Pending,
		yesNo(report.Quiescent), report.Duration.Round(time.Microsecond))

	if f.color {
		banner := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(header)+"  "+subtleStyle.Render(runID),
			stats,
		)
		if _, err := fmt.Fprintln(f.stdout, boxStyle.Render(banner)); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(f.stdout, "%s  %s\n%s\n", header, runID, stats); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(f.stdout); err != nil {
		return err
	}

	if err := f.PrintTable([]string{"Category", "Completed", "Failed"}, categoryRows(report)); err != nil {
		return err
	}

	b := report.Board
	boardLine := fmt.Sprintf("\nboard: enqueued %d  claimed %d  lost races %d  unreachable %d  empty %d",
		b.Enqueued, b.Claimed, b.LostRaces, b.Unreachable, b.Empty)
	if f.color {
		boardLine = subtleStyle.Render(boardLine)
	}
	if _, err := fmt.Fprintln(f.stdout, boardLine); err != nil {
		return err
	}

	if report.Pending > 0 && report.Quiescent {
		warn := fmt.Sprintf("⚠ %d job(s) left on the board that no miner can reach", report.Pending)
		if f.color {
			warn = color.YellowString("%s", warn)
		}
		if _, err := fmt.Fprintln(f.stdout, warn); err != nil {
			return err
		}
	}
	return nil
}

// categoryRows lists every category that completed or failed a job, by name.
func categoryRows(report sim.Report) [][]string {
	var names []string
	for name := range report.Completed {
		names = append(names, name)
	}
	for name := range report.Failed {
		if _, ok := report.Completed[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{
			name,
			strconv.Itoa(report.Completed[name]),
			strconv.Itoa(report.Failed[name]),
		})
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
