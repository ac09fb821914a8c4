package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uicourseai/courseai-backend/internal/model"
)

// GradeRepository reads grade-distribution rows from the warehouse.
// Rates are computed from the stored letter-grade counts at query time so
// the loader never has to keep derived columns in sync.
type GradeRepository struct {
	pool *pgxpool.Pool
}

func NewGradeRepository(pool *pgxpool.Pool) *GradeRepository {
	return &GradeRepository{pool: pool}
}

const baseSelect = `
	SELECT
		subject,
		class_num,
		class_title,
		instructor,
		COALESCE(semester, '') AS semester,
		CASE WHEN total_students > 0
			THEN a_count::float8 / total_students * 100
			ELSE 0 END AS a_rate,
		CASE WHEN total_students > 0
			THEN (d_count + f_count + w_count)::float8 / total_students * 100
			ELSE 0 END AS dfw_rate,
		total_students
	FROM grade_sections
	WHERE total_students > 0`

// Scan returns all records matching the filter's predicates. Ordering is
// left to the caller; the ranking comparators are not expressible as a
// single ORDER BY once relax-on-empty filters enter the picture.
func (r *GradeRepository) Scan(ctx context.Context, f model.RecordFilter) ([]model.GradeRecord, error) {
	var sb strings.Builder
	sb.WriteString(baseSelect)
	args := []any{}

	add := func(clause string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
		}
		sb.WriteString(" AND ")
		sb.WriteString(clause)
	}

	if f.Subject != nil {
		add(fmt.Sprintf("UPPER(subject) = UPPER($%d)", len(args)+1), *f.Subject)
	}
	if f.ClassNum != nil {
		add(fmt.Sprintf("class_num = $%d", len(args)+1), *f.ClassNum)
	} else if f.LevelMin != nil && f.LevelMax != nil {
		// Course numbers may carry a trailing letter ("94a"); compare on
		// the leading digits only. Rows with no digits fall out via NULL.
		add(fmt.Sprintf(
			"NULLIF(substring(class_num FROM '^[0-9]+'), '')::int BETWEEN $%d AND $%d",
			len(args)+1, len(args)+2), *f.LevelMin, *f.LevelMax)
	}
	if f.InstructorLike != nil {
		add(fmt.Sprintf("instructor ILIKE $%d", len(args)+1), "%"+*f.InstructorLike+"%")
	}
	if f.MinEnrollment > 0 {
		add(fmt.Sprintf("total_students >= $%d", len(args)+1), f.MinEnrollment)
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("scan grade sections: %w", err)
	}
	defer rows.Close()

	var records []model.GradeRecord
	for rows.Next() {
		var rec model.GradeRecord
		if err := rows.Scan(
			&rec.Subject,
			&rec.ClassNum,
			&rec.ClassTitle,
			&rec.Instructor,
			&rec.Semester,
			&rec.ARate,
			&rec.DFWRate,
			&rec.TotalStudents,
		); err != nil {
			return nil, fmt.Errorf("scan grade row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListSubjects returns the distinct subject codes present in the warehouse.
func (r *GradeRepository) ListSubjects(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT subject FROM grade_sections ORDER BY subject ASC`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// ListSemesters returns the distinct semester codes present in the warehouse.
// Chronological ordering is applied by the caller, which understands the codes.
func (r *GradeRepository) ListSemesters(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT semester FROM grade_sections WHERE semester IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	defer rows.Close()

	var semesters []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		semesters = append(semesters, s)
	}
	return semesters, rows.Err()
}
