package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/garyellow/lpnu-schedule-bot/internal/schedule"
)

func parseCmd() *cobra.Command {
	var (
		flags   queryFlags
		charset string
	)

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Extract a schedule from a saved HTML page",
		Long: `Runs the extraction on a page saved from the schedule site, without any
network access or term-half fallback. Use "-" to read standard input.`,
		Example: `  rozklad parse page.html --group АВ-11 --week numerator`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			q, err := flags.query(cfg)
			if err != nil {
				return err
			}

			doc, err := loadDocument(cmd.InOrStdin(), args[0], charset)
			if err != nil {
				return err
			}
			engine := schedule.NewEngine(schedule.EngineConfig{Logger: log})
			res := engine.ExtractDocument(cmd.Context(), doc, q)
			return printResult(cmd.OutOrStdout(), res, flags.asJSON)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&charset, "charset", "utf-8", "page encoding: utf-8 or windows-1251")
	return cmd
}

// loadDocument parses path, or stdin for "-", decoding it from charset.
func loadDocument(stdin io.Reader, path, charset string) (*goquery.Document, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open page: %w", err)
		}
		defer f.Close()
		r = f
	}

	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
	case "windows-1251", "cp1251":
		r = transform.NewReader(r, charmap.Windows1251.NewDecoder())
	default:
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}
