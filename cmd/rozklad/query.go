package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyellow/lpnu-schedule-bot/internal/config"
	"github.com/garyellow/lpnu-schedule-bot/internal/logger"
	"github.com/garyellow/lpnu-schedule-bot/internal/schedule"
)

// queryFlags are the lookup flags shared by fetch and parse.
type queryFlags struct {
	group    string
	semester int
	half     int
	subgroup int
	week     string
	asJSON   bool
}

func (f *queryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.group, "group", "g", "", "academic group, e.g. АВ-11 (required)")
	cmd.Flags().IntVar(&f.semester, "semester", 0, "semester 1 or 2 (default from SCHEDULE_SEMESTER or the calendar)")
	cmd.Flags().IntVar(&f.half, "half", 0, "term half 1 or 2 (default from SCHEDULE_TERM_HALF)")
	cmd.Flags().IntVar(&f.subgroup, "subgroup", 0, "subgroup 1 or 2; 0 keeps both")
	cmd.Flags().StringVar(&f.week, "week", "", "numerator or denominator; empty keeps both")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the weekday map as JSON")
	_ = cmd.MarkFlagRequired("group")
}

// query builds a validated Query, filling unset flags from cfg.
func (f *queryFlags) query(cfg *config.Config) (schedule.Query, error) {
	semester, half := f.semester, f.half
	if semester == 0 {
		semester = cfg.ScheduleSemester
	}
	if half == 0 {
		half = cfg.ScheduleTermHalf
	}
	parity, err := schedule.ParseWeekParity(f.week)
	if err != nil {
		return schedule.Query{}, err
	}

	q := schedule.Query{
		Group:    f.group,
		Semester: schedule.Semester(semester),
		TermHalf: schedule.TermHalf(half),
		Subgroup: schedule.Subgroup(f.subgroup),
		Parity:   parity,
	}
	if err := q.Validate(); err != nil {
		return schedule.Query{}, fmt.Errorf("invalid query: %w", err)
	}
	return q, nil
}

// setup loads the CLI configuration and a stderr logger.
func setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadForMode(config.CLIMode)
	if err != nil {
		return nil, nil, err
	}
	level, _ := cmd.Flags().GetString("log-level")
	log := logger.NewWithOptions(logger.Options{Level: level, Writer: cmd.ErrOrStderr()})
	return cfg, log, nil
}
