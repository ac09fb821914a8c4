// load-grades imports a CSV export of raw letter-grade counts into the
// grade_sections warehouse table. Expected header:
//
//	subject,class_num,class_title,instructor,semester,total_students,a,b,c,d,f,w
//
// Rows with zero enrollment are skipped; rates are never stored, they are
// derived from the counts at query time.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/uicourseai/courseai-backend/internal/config"
	"github.com/uicourseai/courseai-backend/internal/database"
	"github.com/uicourseai/courseai-backend/internal/logger"
)

func main() {
	var (
		csvPath  string
		truncate bool
	)
	flag.StringVar(&csvPath, "csv", "", "Path to the grades CSV file")
	flag.BoolVar(&truncate, "truncate", false, "Truncate grade_sections before loading")
	flag.Parse()

	if csvPath == "" {
		fmt.Println("Usage: load-grades -csv <path> [-truncate]")
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", csvPath).Msg("Failed to open CSV")
	}
	defer f.Close()

	rows, skipped, err := readSections(csv.NewReader(f))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse CSV")
	}

	if truncate {
		if _, err := pool.Exec(ctx, `TRUNCATE grade_sections`); err != nil {
			log.Fatal().Err(err).Msg("Truncate failed")
		}
		log.Info().Msg("Truncated grade_sections")
	}

	copied, err := pool.CopyFrom(ctx,
		pgx.Identifier{"grade_sections"},
		[]string{"subject", "class_num", "class_title", "instructor", "semester",
			"total_students", "a_count", "b_count", "c_count", "d_count", "f_count", "w_count"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Bulk load failed")
	}

	log.Info().
		Int64("loaded", copied).
		Int("skipped", skipped).
		Msg("Warehouse load complete")
}

// readSections parses the CSV into CopyFrom rows, skipping the header and
// zero-enrollment sections.
func readSections(r *csv.Reader) ([][]any, int, error) {
	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	if len(header) != 12 {
		return nil, 0, fmt.Errorf("expected 12 columns, got %d", len(header))
	}

	var (
		rows    [][]any
		skipped int
		line    = 1
	)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read line %d: %w", line+1, err)
		}
		line++

		counts := make([]int, 7) // total, a, b, c, d, f, w
		for i := range counts {
			n, err := strconv.Atoi(record[5+i])
			if err != nil {
				return nil, 0, fmt.Errorf("line %d: bad count %q: %w", line, record[5+i], err)
			}
			counts[i] = n
		}

		if counts[0] <= 0 {
			skipped++
			continue
		}

		var semester any
		if record[4] != "" {
			semester = record[4]
		}

		rows = append(rows, []any{
			record[0], record[1], record[2], record[3], semester,
			counts[0], counts[1], counts[2], counts[3], counts[4], counts[5], counts[6],
		})
	}
	return rows, skipped, nil
}
