package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/postal-lookup/internal/config"
	"github.com/postal-lookup/internal/db"
	"github.com/postal-lookup/internal/geonames"
	"github.com/postal-lookup/internal/logging"
	"github.com/postal-lookup/internal/search"
	"github.com/postal-lookup/internal/store"
	"github.com/postal-lookup/internal/web"
)

var logger *log.Logger

func main() {
	config.LoadEnv()
	logger = logging.New("postald")

	rootCmd := &cobra.Command{
		Use:   "postald",
		Short: "Postal code lookup service",
		Long:  `Exact and fuzzy postal code lookups over the GeoNames reference dataset, served over HTTP or queried from the command line`,
	}

	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createLoadCmd())
	rootCmd.AddCommand(createSchemaCmd())
	rootCmd.AddCommand(createLookupCmd())
	rootCmd.AddCommand(createSuggestCmd())
	rootCmd.AddCommand(createValidateCmd())
	rootCmd.AddCommand(createStatsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func mustConnect() *sql.DB {
	conn, err := db.Connect()
	if err != nil {
		logger.Fatal("database connection failed", "err", err)
	}
	return conn
}

func newService(conn *sql.DB) *search.Service {
	return search.NewService(store.NewSQLStore(conn), logger)
}

func createServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP lookup API",
		Run: func(cmd *cobra.Command, args []string) {
			conn := mustConnect()
			defer conn.Close()

			if err := db.EnsureSchema(conn); err != nil {
				logger.Fatal("schema setup failed", "err", err)
			}

			cfg := web.ConfigFromEnv()
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			srv := web.New(cfg, newService(conn), logger)
			if err := srv.Run(); err != nil {
				logger.Fatal("server failed", "err", err)
			}
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Listen address")
	cmd.Flags().IntVar(&port, "port", 8080, "Listen port")
	return cmd
}

func createLoadCmd() *cobra.Command {
	var truncate bool
	var batchSize, workers int

	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Load a GeoNames postal code dump",
		Long:  `Load a GeoNames postal code file (.txt, .zip or .gz) into the database`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			conn := mustConnect()
			defer conn.Close()

			if err := db.EnsureSchema(conn); err != nil {
				logger.Fatal("schema setup failed", "err", err)
			}

			writer := &geonames.CopyWriter{DB: conn}
			if truncate {
				if err := writer.Truncate(); err != nil {
					logger.Fatal("truncate failed", "err", err)
				}
			}

			loader := geonames.NewLoader(writer, logger)
			loader.BatchSize = batchSize
			loader.Workers = workers

			sum, err := loader.LoadFile(args[0])
			if err != nil {
				logger.Fatal("load failed", "err", err)
			}

			fmt.Printf("\n=== Load Results ===\n")
			fmt.Printf("Inserted: %d\n", sum.Inserted)
			fmt.Printf("Skipped:  %d\n", sum.Skipped)
			fmt.Printf("Elapsed:  %s\n", sum.Elapsed.Round(time.Millisecond))
		},
	}

	cmd.Flags().BoolVar(&truncate, "truncate", false, "Empty the table before loading")
	cmd.Flags().IntVar(&batchSize, "batch-size", 1000, "Rows per insert batch")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent insert workers")
	return cmd
}

func createSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the postal_codes table and indexes",
		Run: func(cmd *cobra.Command, args []string) {
			conn := mustConnect()
			defer conn.Close()

			if err := db.EnsureSchema(conn); err != nil {
				logger.Fatal("schema setup failed", "err", err)
			}
			fmt.Println("Schema is up to date.")
		},
	}
}

func createLookupCmd() *cobra.Command {
	var fuzzy bool

	cmd := &cobra.Command{
		Use:   "lookup [country] [postal-code]",
		Short: "Look up a postal code",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			conn := mustConnect()
			defer conn.Close()

			result := newService(conn).Lookup(args[0], args[1], fuzzy)
			if !result.Success {
				logger.Fatal("lookup failed", "err", result.Error)
			}

			fmt.Printf("Match type: %s (%.1f ms)\n", result.MatchType, result.Elapsed)
			if len(result.Results) == 0 {
				fmt.Println("No matches found.")
				return
			}
			for i, m := range result.Results {
				if m.SimilarityScore != nil {
					fmt.Printf("%2d. %-12s %-30s score=%.3f\n", i+1, m.PostalCode, m.PlaceName, *m.SimilarityScore)
				} else {
					fmt.Printf("%2d. %-12s %-30s\n", i+1, m.PostalCode, m.PlaceName)
				}
				fmt.Printf("    %s\n", m.FullAddress)
			}
		},
	}

	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Fall back to fuzzy matching when no exact match exists")
	return cmd
}

func createSuggestCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest [country] [partial]",
		Short: "Autocomplete a partial postal code",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			conn := mustConnect()
			defer conn.Close()

			resp := newService(conn).Suggest(args[0], args[1], limit)
			if !resp.Success {
				logger.Fatal("suggest failed", "err", resp.Error)
			}
			if len(resp.Suggestions) == 0 {
				fmt.Println("No suggestions.")
				return
			}
			for _, s := range resp.Suggestions {
				fmt.Printf("%-12s %s\n", s.PostalCode, s.PlaceName)
			}
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of suggestions")
	return cmd
}

func createValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [country] [postal-code]",
		Short: "Check whether a postal code exists",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			conn := mustConnect()
			defer conn.Close()

			if newService(conn).Validate(args[0], args[1]) {
				fmt.Printf("%s %s is valid\n", args[0], args[1])
				return
			}
			fmt.Printf("%s %s is not valid\n", args[0], args[1])
			os.Exit(1)
		},
	}
}

func createStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dataset statistics",
		Run: func(cmd *cobra.Command, args []string) {
			conn := mustConnect()
			defer conn.Close()

			stats, err := newService(conn).Stats()
			if err != nil {
				logger.Fatal("stats query failed", "err", err)
			}
			fmt.Printf("Total records: %d\n", stats.TotalRecords)
			fmt.Printf("Countries:     %d\n", stats.Countries)
		},
	}
}
