package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/catalog-importer/internal/bootstrap"
	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/export"
	"github.com/joseph-ayodele/catalog-importer/internal/importer"
	"github.com/joseph-ayodele/catalog-importer/internal/ingest"
	"github.com/joseph-ayodele/catalog-importer/internal/jobstore"
	"github.com/joseph-ayodele/catalog-importer/internal/pipeline"
	"github.com/joseph-ayodele/catalog-importer/internal/repository"
	"github.com/joseph-ayodele/catalog-importer/internal/services/extraction"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type options struct {
	dir      string
	out      string
	supplier string
	category string
	confirm  bool
	inmem    bool
}

func main() {
	// Parse CLI flags
	var opts options
	flag.StringVar(&opts.dir, "dir", "", "directory of catalog files to extract (required)")
	flag.StringVar(&opts.out, "out", "", "output XLSX path (default: <parent of dir>/catalog.xlsx)")
	flag.StringVar(&opts.supplier, "supplier", "", "supplier name for --confirm")
	flag.StringVar(&opts.category, "category", "", "category path for --confirm, e.g. \"Furniture > Chairs\"")
	flag.BoolVar(&opts.confirm, "confirm", false, "import every extracted record into the catalog store")
	flag.BoolVar(&opts.inmem, "inmem", false, "use an in-memory SQLite catalog store")
	flag.Parse()

	if opts.dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if opts.confirm && (opts.supplier == "" || opts.category == "") {
		printError("Error: --confirm needs --supplier and --category\n")
		os.Exit(1)
	}
	if opts.out == "" {
		opts.out = filepath.Join(filepath.Dir(filepath.Clean(opts.dir)), "catalog.xlsx")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}
	cfg := common.LoadConfig()
	if opts.inmem {
		cfg.Database.Driver = "sqlite"
		cfg.Database.DSN = ":memory:"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, opts options, logger *slog.Logger) error {
	provider, closeProvider, err := bootstrap.NewProvider(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	routes, err := bootstrap.NewRoutes(cfg, provider, logger)
	if err != nil {
		return err
	}

	// jobs live only for this run
	orchestrator := pipeline.NewOrchestrator(jobstore.NewMemoryStore(0, logger), routes, logger)

	ingestor := ingest.NewFSIngestor(cfg.Server.UploadDir, 0, logger)
	files, stats, err := ingestor.CollectDirectory(ctx, opts.dir, true)
	if err != nil {
		return err
	}
	logger.Info("collection complete", "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)
	if len(files) == 0 {
		return fmt.Errorf("no supported files under %s", opts.dir)
	}

	job, err := orchestrator.Run(ctx, pipeline.Batch{Files: files})
	if err != nil {
		return err
	}
	for _, msg := range job.Errors {
		logger.Warn("file error", "job_id", job.ID, "message", msg)
	}

	exporter := export.NewService(orchestrator, logger)
	xlsx, err := exporter.ExportJobXLSX(ctx, job.ID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, xlsx, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}

	var outcome *entity.ImportOutcome
	if opts.confirm {
		o, err := confirm(ctx, cfg, orchestrator, exporter, job.ID, opts, logger)
		if err != nil {
			return err
		}
		outcome = &o
	}

	fmt.Printf("Batch extraction complete!\n")
	fmt.Printf("- Job: %s (%s)\n", job.ID, job.Status)
	fmt.Printf("- Files processed: %d/%d\n", job.ProcessedFiles, job.TotalFiles)
	fmt.Printf("- Records: %d\n", len(job.Records))
	fmt.Printf("- File errors: %d\n", len(job.Errors))
	fmt.Printf("- Output: %s\n", opts.out)
	if outcome != nil {
		fmt.Printf("- Imported: %d created, %d duplicates, %d errors, %d skipped\n",
			outcome.CreatedCount, outcome.DuplicateCount, outcome.OtherErrorCount, len(outcome.SkippedRecords))
		for _, d := range outcome.ErrorDetails {
			fmt.Printf("  ! %s\n", d)
		}
	}
	return nil
}

func confirm(ctx context.Context, cfg *common.Config, orchestrator *pipeline.Orchestrator, exporter *export.Service, jobID string, opts options, logger *slog.Logger) (entity.ImportOutcome, error) {
	if cfg.Database.DSN == "" {
		return entity.ImportOutcome{}, errors.New("DB_URL is required for --confirm (or pass --inmem)")
	}
	catalog, err := repository.Open(ctx, bootstrap.RepositoryConfig(cfg.Database), logger)
	if err != nil {
		return entity.ImportOutcome{}, err
	}
	defer catalog.Close()
	if err := catalog.Migrate(ctx); err != nil {
		return entity.ImportOutcome{}, err
	}

	mapper := importer.NewMapper(orchestrator, catalog, cfg.Extraction.DefaultUnit, logger)
	svc := extraction.NewService(orchestrator, nil, catalog, mapper, exporter, logger)
	return svc.Confirm(ctx, jobID, extraction.ConfirmRequest{
		Supplier: opts.supplier,
		Category: opts.category,
	})
}
