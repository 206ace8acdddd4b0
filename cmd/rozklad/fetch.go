package main

import (
	"github.com/spf13/cobra"

	"github.com/garyellow/lpnu-schedule-bot/internal/schedule"
	"github.com/garyellow/lpnu-schedule-bot/internal/scraper"
)

func fetchCmd() *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a group's schedule from the schedule site",
		Example: `  rozklad fetch --group АВ-11
  rozklad fetch -g КН-21 --subgroup 2 --week denominator --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			q, err := flags.query(cfg)
			if err != nil {
				return err
			}

			client := scraper.NewClient(scraper.ClientConfig{
				BaseURL:       cfg.ScheduleBaseURL,
				Timeout:       cfg.ScraperTimeout,
				MinDelay:      cfg.ScraperMinDelay,
				MaxDelay:      cfg.ScraperMaxDelay,
				ProxyAPIKey:   cfg.ScraperAPIKey,
				ProxyEndpoint: cfg.ScraperProxyEndpoint,
			})
			engine := schedule.NewEngine(schedule.EngineConfig{Fetcher: client, Logger: log})

			log.WithField("group", q.Group).
				WithField("target", client.TargetURL(q.Request())).
				Info("Fetching schedule")
			res := engine.GetSchedule(cmd.Context(), q)
			return printResult(cmd.OutOrStdout(), res, flags.asJSON)
		},
	}
	flags.bind(cmd)
	return cmd
}
