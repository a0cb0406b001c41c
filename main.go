package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"plugindiff/internal/app"
	"plugindiff/internal/compare"
	"plugindiff/internal/crawl"
	"plugindiff/internal/history"
	"plugindiff/internal/serve"
)

func main() {
	cliApp := &cli.App{
		Name:  "plugindiff",
		Usage: "crawl WordPress plugin listings and reconcile their catalogs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the configuration file (default: config.yaml)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "only log errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "crawl",
				Usage:  "crawl listing sources into catalog CSVs",
				Action: crawl.CrawlAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "crawl one named source",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "crawl every configured source concurrently",
					},
					&cli.IntFlag{
						Name:  "pages",
						Usage: "page limit per source (default: max_pages from config)",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "catalog CSV path, single source only (default: <data_dir>/<source>_catalog.csv)",
					},
				},
			},
			{
				Name:   "compare",
				Usage:  "match two catalog CSVs and write report files",
				Action: compare.CompareAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "ref",
						Usage: "reference catalog CSV",
					},
					&cli.StringFlag{
						Name:  "cand",
						Usage: "candidate catalog CSV",
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "label used in report filenames (default: plugins)",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "similarity threshold in (0,1] (default: threshold from config)",
					},
					&cli.StringFlag{
						Name:  "out-dir",
						Usage: "report directory (default: data_dir from config)",
					},
				},
			},
			{
				Name:   "run",
				Usage:  "crawl all paired sources, reconcile, record, and notify",
				Action: app.RunAction,
			},
			{
				Name:   "status",
				Usage:  "show the latest run and service settings",
				Action: app.StatusAction,
			},
			{
				Name:  "history",
				Usage: "inspect recorded runs",
				Subcommands: []*cli.Command{
					{
						Name:   "runs",
						Usage:  "list recorded runs",
						Action: history.RunsAction,
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "limit",
								Usage: "maximum runs to list (0 = all)",
							},
						},
					},
					{
						Name:      "show",
						Usage:     "show one run with its matches (latest when no ID is given)",
						ArgsUsage: "[run-id]",
						Action:    history.ShowAction,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "run the HTTP API with the scheduled reconciliation",
				Action: serve.ServeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "listen address (default: server.addr from config)",
					},
				},
			},
			{
				Name:   "config",
				Usage:  "print the effective configuration",
				Action: app.ConfigAction,
			},
			{
				Name:   "quickstart",
				Usage:  "print the quick-start guide",
				Action: app.QuickstartAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "template",
						Usage: "print a starter config.yaml instead",
					},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
