package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"aidigest/internal/collect"
	"aidigest/internal/config"
	"aidigest/internal/database"
	"aidigest/internal/pipeline"
	"aidigest/internal/scheduler"
	"aidigest/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "aidigest",
	Short:   "AI news digests with community sentiment",
	Long:    "aidigest collects, ranks, and summarizes AI news into periodic digests, enriched with Reddit and Hacker News community sentiment.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Pick up API keys from a local .env if present
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sourcesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("aidigest", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and seed the source registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
		} else {
			if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}
			if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Printf("Created config: %s\n", target)
		}

		// Seed the source registry from the config's source list
		var err error
		cfg, err = config.Load(target)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		for _, s := range cfg.Sources {
			if err := db.InsertSource(s.ID, s.Name, s.FeedURL, s.Category); err != nil {
				return fmt.Errorf("seeding source %s: %w", s.ID, err)
			}
		}
		fmt.Printf("Seeded %d sources.\n", len(cfg.Sources))
		fmt.Println("Edit the config to adjust feeds, model, and schedule.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		today := database.GetToday()
		fmt.Printf("Today: %s\n\n", today)
		fmt.Println("Items:")
		fmt.Printf("  Total collected: %d\n", stats.TotalItems)
		fmt.Printf("  Ranked: %d\n", stats.RankedItems)
		fmt.Printf("  In digests: %d\n", stats.DigestItems)
		fmt.Printf("  With community sentiment: %d\n", stats.EnrichedItems)
		fmt.Println("\nOutput:")
		fmt.Printf("  Digests: %d\n", stats.Digests)
		fmt.Printf("  Days with data: %d\n", stats.PeriodsWithItems)
		fmt.Println("\nSources:")
		fmt.Printf("  Total: %d\n", stats.TotalSources)
		fmt.Printf("  Active: %d\n", stats.ActiveSources)
		fmt.Println("\nAI usage:")
		fmt.Printf("  Recorded calls: %d\n", stats.TotalUsageRecords)
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect items from registered sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		periodID := database.GetToday()
		fmt.Println("Collecting items from sources...")

		collector := collect.NewCollector(db, 1)
		result := collector.Collect(periodID)

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New items: %d\n", result.NewItems)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)

		if len(result.Sources) > 0 {
			fmt.Println("\nItems by source:")
			// Sort sources by count descending
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- run command ---

var (
	dryRun   bool
	daysBack int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> fetch -> rank -> assemble -> summarize -> enrich",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		today := database.GetToday()
		periodID, effectiveDaysBack, err := resolvePeriod(db, today, daysBack)
		if err != nil {
			return err
		}

		pipe := pipeline.New(cfg, db)
		ctx := context.Background()

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(periodID)
		} else {
			result = pipe.Run(ctx, periodID, effectiveDaysBack)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/6: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'aidigest serve' to view the digest.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().IntVar(&daysBack, "days-back", 0, "Override lookback window (days)")
}

// resolvePeriod determines the period ID and effective days back based on
// explicit --days-back, catch-up detection, or daily run.
func resolvePeriod(db *database.DB, today string, explicitDaysBack int) (periodID string, effectiveDaysBack int, err error) {
	if explicitDaysBack > 0 {
		if explicitDaysBack == 1 {
			periodID = today
		} else {
			todayDate, _ := time.Parse("2006-01-02", today)
			start := todayDate.AddDate(0, 0, -(explicitDaysBack - 1)).Format("2006-01-02")
			periodID = database.MakePeriodID(start, today)
		}
		fmt.Printf("Collecting %d day(s) of items (%s).\n", explicitDaysBack, periodID)
		return periodID, explicitDaysBack, nil
	}

	lastRun, _ := db.GetLastRunDate()
	if lastRun == "" {
		fmt.Println("First run detected, collecting today's items.")
		return today, 1, nil
	}

	lastDate, _ := time.Parse("2006-01-02", lastRun)
	todayDate, _ := time.Parse("2006-01-02", today)
	missedDays := int(todayDate.Sub(lastDate).Hours() / 24)

	if missedDays <= 0 {
		fmt.Printf("Already ran today (%s). Re-running pipeline.\n", today)
		return today, 1, nil
	}

	if missedDays == 1 {
		fmt.Printf("Daily run for %s.\n", today)
		return today, 1, nil
	}

	// Catch-up: missed multiple days
	startDate := lastDate.AddDate(0, 0, 1).Format("2006-01-02")
	periodID = database.MakePeriodID(startDate, today)

	if missedDays > 5 {
		fmt.Printf("Last run was %d days ago (%s).\n", missedDays, lastRun)
		fmt.Printf("Catch up %d days (%s)? This will use more API calls [y/N]: ", missedDays, periodID)

		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			return "", 0, fmt.Errorf("aborted")
		}
	} else {
		fmt.Printf("Catching up %d days (%s).\n", missedDays, periodID)
	}

	return periodID, missedDays, nil
}

// --- enrich command ---

var enrichPeriod string

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich an existing digest with community sentiment",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		periodID := enrichPeriod
		if periodID == "" {
			periodID = database.GetToday()
		}

		d, err := db.GetDigest(periodID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("no digest for %s; run 'aidigest run' first", periodID)
		}

		pipe := pipeline.New(cfg, db)
		step := pipe.Enrich(context.Background(), periodID)
		if step.Err != nil {
			return step.Err
		}
		fmt.Println(step.Summary)
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichPeriod, "period", "", "Period to enrich (defaults to today)")
}

// --- serve command ---

var (
	servePort     int
	serveSchedule bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		if serveSchedule {
			sched, err := scheduler.New(cfg.Schedule.Timezone)
			if err != nil {
				return err
			}
			err = sched.Schedule(cfg.Schedule.Time, func() {
				periodID := database.GetToday()
				log.Printf("Scheduled run for %s", periodID)
				result := pipeline.New(cfg, db).Run(context.Background(), periodID, 1)
				for _, step := range result.Steps {
					if step.Err != nil {
						log.Printf("Step %s failed: %v", step.Name, step.Err)
					}
				}
			})
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
			fmt.Printf("Daily pipeline scheduled at %s (%s)\n", cfg.Schedule.Time, cfg.Schedule.Timezone)
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (defaults to config)")
	serveCmd.Flags().BoolVar(&serveSchedule, "schedule", false, "Also run the pipeline on the configured daily schedule")
}

// --- sources command ---

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage the source registry",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		sources, err := db.GetAllSources()
		if err != nil {
			return err
		}

		if len(sources) == 0 {
			fmt.Println("No sources registered. Add one with: aidigest sources add")
			return nil
		}

		fmt.Println("Sources:")
		fmt.Println()
		for _, s := range sources {
			icon := " "
			if s.IsActive {
				icon = "*"
			}
			fmt.Printf("  [%s] %s %s (%s)\n", s.ID, icon, s.Name, s.Category)
			fmt.Printf("        %s\n", s.FeedURL)
		}
		return nil
	},
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add [id] [name] [feed-url]",
	Short: "Register a new source",
	Long:  "Register a new source. Use an \"r-\" id prefix for Reddit feeds and \"hn-\" for Hacker News feeds so their discussions get enriched.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		category, _ := cmd.Flags().GetString("category")
		if err := db.InsertSource(args[0], args[1], args[2], category); err != nil {
			return err
		}
		fmt.Printf("Added source [%s]: %s\n", args[0], args[1])
		return nil
	},
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		source, err := db.GetSource(args[0])
		if err != nil {
			return err
		}
		if source == nil {
			return fmt.Errorf("source %s not found", args[0])
		}

		if err := db.DeleteSource(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed source [%s]: %s\n", source.ID, source.Name)
		return nil
	},
}

var sourcesToggleCmd = &cobra.Command{
	Use:   "toggle [id]",
	Short: "Toggle a source's active state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		source, err := db.GetSource(args[0])
		if err != nil {
			return err
		}
		if source == nil {
			return fmt.Errorf("source %s not found", args[0])
		}

		if err := db.ToggleSource(args[0]); err != nil {
			return err
		}
		newState := "disabled"
		if !source.IsActive {
			newState = "enabled"
		}
		fmt.Printf("Source [%s] %s: %s\n", source.ID, source.Name, newState)
		return nil
	},
}

func init() {
	sourcesAddCmd.Flags().String("category", "news", "Source category")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
	sourcesCmd.AddCommand(sourcesToggleCmd)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "aidigest.db")
	return database.Open(dbPath)
}
