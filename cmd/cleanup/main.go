// Command cleanup removes malformed combined artist entries from every concert.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"earplugs/internal/app/concerts"
	"earplugs/internal/store"
	"earplugs/shared/go/config"
	"earplugs/shared/go/logging"
	"earplugs/shared/go/models"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report malformed entries without saving")
	limit := flag.Int("limit", 500, "maximum number of concerts to scan")
	flag.Parse()

	_ = godotenv.Load("config/local.env")
	_ = godotenv.Load()

	cfg, err := config.LoadTool()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.SetGlobalLogger(logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	sum, err := run(ctx, concerts.New(store.New(db)), *limit, *dryRun, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("cleanup failed")
	}
	log.Info().
		Int("scanned", sum.Scanned).
		Int("affected", sum.Affected).
		Int("removed", sum.Removed).
		Int("failed", sum.Failed).
		Bool("dry_run", *dryRun).
		Msg("cleanup finished")
}

type cleaner interface {
	List(ctx context.Context, limit int) ([]*models.Concert, error)
	Cleanup(ctx context.Context, id int64, dryRun bool) (*concerts.CleanupResult, error)
}

type summary struct {
	Scanned  int
	Affected int
	Removed  int
	Failed   int
}

// run cleans each listed concert in its own transaction. A concert that fails is
// logged and skipped so one bad row does not stop the batch.
func run(ctx context.Context, svc cleaner, limit int, dryRun bool, out io.Writer) (summary, error) {
	var sum summary

	list, err := svc.List(ctx, limit)
	if err != nil {
		return sum, fmt.Errorf("list concerts: %w", err)
	}

	for _, c := range list {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Scanned++

		res, err := svc.Cleanup(ctx, c.ID, dryRun)
		if err != nil {
			sum.Failed++
			log.Error().Err(err).Int64("concert_id", c.ID).Msg("cleanup concert")
			continue
		}
		if len(res.Removed) == 0 {
			continue
		}

		sum.Affected++
		sum.Removed += len(res.Removed)
		verb := "removed"
		if dryRun {
			verb = "would remove"
		}
		for _, e := range res.Removed {
			fmt.Fprintf(out, "concert %d (%s): %s %q\n", c.ID, c.Date.Format("2006-01-02"), verb, e.ArtistName)
		}
	}
	return sum, nil
}
