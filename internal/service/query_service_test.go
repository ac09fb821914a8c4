package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uicourseai/courseai-backend/internal/intent"
	"github.com/uicourseai/courseai-backend/internal/model"
)

// fakeStore is an in-memory GradeStore that honors the same predicate
// contract as the SQL repository.
type fakeStore struct {
	records    []model.GradeRecord
	err        error
	lastFilter model.RecordFilter
}

func (f *fakeStore) Scan(_ context.Context, filter model.RecordFilter) ([]model.GradeRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastFilter = filter

	var out []model.GradeRecord
	for _, rec := range f.records {
		if filter.Subject != nil && !strings.EqualFold(rec.Subject, *filter.Subject) {
			continue
		}
		if filter.ClassNum != nil {
			if rec.ClassNum != *filter.ClassNum {
				continue
			}
		} else if filter.LevelMin != nil && filter.LevelMax != nil {
			num := classNumValue(rec.ClassNum)
			if num < *filter.LevelMin || num > *filter.LevelMax {
				continue
			}
		}
		if filter.InstructorLike != nil &&
			!strings.Contains(strings.ToLower(rec.Instructor), strings.ToLower(*filter.InstructorLike)) {
			continue
		}
		if rec.TotalStudents < filter.MinEnrollment {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func classNumValue(classNum string) int {
	n := 0
	for _, r := range classNum {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func (f *fakeStore) ListSubjects(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"CS", "MATH"}, nil
}

func (f *fakeStore) ListSemesters(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"SP23", "FA23", "SP24"}, nil
}

// fixedResolver returns a scripted intent, bypassing text parsing.
type fixedResolver struct {
	intent  model.Intent
	usedLLM bool
}

func (r *fixedResolver) Resolve(context.Context, string, bool) (model.Intent, bool) {
	return r.intent, r.usedLLM
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

var testConfig = RankingConfig{
	RecencyYears:      3,
	MinEnrollment:     10,
	MaxResults:        10,
	DetailResultLimit: 20,
}

func rec(subject, classNum, title, instructor, semester string, aRate, dfwRate float64, students int) model.GradeRecord {
	return model.GradeRecord{
		Subject:       subject,
		ClassNum:      classNum,
		ClassTitle:    title,
		Instructor:    instructor,
		Semester:      semester,
		ARate:         aRate,
		DFWRate:       dfwRate,
		TotalStudents: students,
	}
}

func newTestService(store GradeStore, it model.Intent) *QueryService {
	s := NewQueryService(store, &fixedResolver{intent: it}, nil, testConfig, 0, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestQueryRanksEasy(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "580", "Query Process Database Systms", "Yu, Clement T", "FA23", 56.7, 3.3, 30),
		rec("CS", "580", "Query Process Database Systms", "Sintos, Stavros", "SP24", 90.3, 0, 31),
	}}

	it := model.NewIntent()
	it.Subject = strPtr("CS")
	it.ClassNum = strPtr("580")

	resp, err := newTestService(store, it).Query(context.Background(), "easy cs 580", false)
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Contains(t, resp.Results[0].Instructor, "Sintos", "higher A% ranks first for easy")
	assert.Equal(t, 1, resp.Results[0].Rank)
	assert.Equal(t, 2, resp.Results[1].Rank)
	assert.False(t, resp.UsedLLM)
}

func TestQueryRanksHard(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "401", "Computer Algorithms I", "A", "FA23", 30, 25, 40),
		rec("CS", "401", "Computer Algorithms I", "B", "FA23", 50, 5, 40),
		rec("CS", "401", "Computer Algorithms I", "C", "FA23", 30, 25, 60),
	}}

	it := model.NewIntent()
	it.Polarity = model.PolarityHard

	resp, err := newTestService(store, it).Query(context.Background(), "hard cs 401", false)
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	// DFW desc first; the 25% DFW tie breaks on enrollment descending.
	assert.Equal(t, "C", resp.Results[0].Instructor)
	assert.Equal(t, "A", resp.Results[1].Instructor)
	assert.Equal(t, "B", resp.Results[2].Instructor)
}

func TestQueryRankingIsDeterministicOnFullTies(t *testing.T) {
	// Identical stats force the lexical tie-break.
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "210", "Systems Programming", "Zed", "FA23", 40, 10, 25),
		rec("CS", "110", "Program Design", "Adams", "FA23", 40, 10, 25),
	}}

	it := model.NewIntent()

	svc := newTestService(store, it)
	for i := 0; i < 5; i++ {
		resp, err := svc.Query(context.Background(), "easy cs", false)
		require.NoError(t, err)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "110", resp.Results[0].ClassNum, "lexical tie-break is stable")
	}
}

func TestQueryTruncatesToMaxResults(t *testing.T) {
	var records []model.GradeRecord
	for i := 0; i < 25; i++ {
		records = append(records, rec("CS", "111", "Program Design I", "X", "FA23", float64(i), 5, 20+i))
	}
	store := &fakeStore{records: records}

	resp, err := newTestService(store, model.NewIntent()).Query(context.Background(), "easy cs", false)
	require.NoError(t, err)
	assert.Len(t, resp.Results, testConfig.MaxResults)
}

func TestQueryEnforcesEnrollmentFloor(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "580", "Query Process Database Systms", "Yu, Clement T", "FA23", 100, 0, 3),
		rec("CS", "580", "Query Process Database Systms", "Sintos, Stavros", "SP24", 80, 5, 31),
	}}

	it := model.NewIntent()
	it.Subject = strPtr("CS")
	it.ClassNum = strPtr("580")

	resp, err := newTestService(store, it).Query(context.Background(), "easy cs 580", false)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1, "tiny sections are excluded even on exact course queries")
	assert.Contains(t, resp.Results[0].Instructor, "Sintos")
	assert.Equal(t, testConfig.MinEnrollment, store.lastFilter.MinEnrollment, "the floor is pushed down to the store")
	for _, r := range resp.Results {
		assert.GreaterOrEqual(t, r.TotalStudents, testConfig.MinEnrollment)
	}
}

func TestQueryEnrollmentFloorIsNotRelaxed(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "590", "Research Seminar", "Solo", "FA23", 100, 0, 4),
	}}

	it := model.NewIntent()
	it.Subject = strPtr("CS")

	resp, err := newTestService(store, it).Query(context.Background(), "easy cs", false)
	require.NoError(t, err)
	assert.Empty(t, resp.Results, "not enough data beats showing noisy sections")
}

func TestQueryKeywordFilter(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "412", "Intro to Machine Learning", "A", "FA23", 60, 5, 50),
		rec("CS", "111", "Program Design I", "B", "FA23", 90, 1, 50),
	}}

	it := model.NewIntent()
	it.Keywords = []string{"ml"}

	resp, err := newTestService(store, it).Query(context.Background(), "show easy ml courses", false)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "412", resp.Results[0].ClassNum)
}

func TestQueryKeywordFilterRelaxesOnZeroMatches(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "111", "Program Design I", "B", "FA23", 90, 1, 50),
	}}

	it := model.NewIntent()
	it.Keywords = []string{"basketweaving"}

	resp, err := newTestService(store, it).Query(context.Background(), "easy basketweaving courses", false)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1, "keyword filter never empties a non-empty base set")
}

func TestQueryRecencyFilter(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "111", "Program Design I", "Old", "FA19", 95, 1, 50),
		rec("CS", "111", "Program Design I", "New", "FA24", 70, 5, 50),
	}}

	it := model.NewIntent()
	it.Recent = true

	resp, err := newTestService(store, it).Query(context.Background(), "easy cs recent", false)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "New", resp.Results[0].Instructor)
}

func TestQueryRecencyFilterRelaxesOnZeroMatches(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "111", "Program Design I", "Old", "FA15", 95, 1, 50),
	}}

	it := model.NewIntent()
	it.Recent = true

	resp, err := newTestService(store, it).Query(context.Background(), "easy cs recent", false)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1, "recency never empties a non-empty base set")
}

func TestQueryLevelRange(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "580", "Query Process Database Systms", "A", "FA23", 60, 5, 30),
		rec("CS", "412", "Intro to Machine Learning", "B", "FA23", 60, 5, 30),
	}}

	it := model.NewIntent()
	it.Level = intPtr(500)

	resp, err := newTestService(store, it).Query(context.Background(), "easy 500-level cs", false)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "580", resp.Results[0].ClassNum)
}

func TestQueryExplanationMentionsRecencyAndFloor(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "580", "Query Process Database Systms", "A", "FA24", 60, 5, 30),
	}}

	it := model.NewIntent()
	it.Subject = strPtr("CS")
	it.ClassNum = strPtr("580")
	it.Recent = true
	it.Explain = true

	resp, err := newTestService(store, it).Query(context.Background(), "easy cs 580 recent --explain", false)
	require.NoError(t, err)

	require.NotEmpty(t, resp.Explanation)
	assert.Contains(t, resp.Explanation, "recent semesters")
	assert.Contains(t, resp.Explanation, "minimum enrollment 10")
	assert.Contains(t, resp.Explanation, "A% descending")
}

func TestQueryNoExplanationWithoutExplain(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "111", "Program Design I", "B", "FA23", 90, 1, 50),
	}}

	resp, err := newTestService(store, model.NewIntent()).Query(context.Background(), "easy cs", false)
	require.NoError(t, err)
	assert.Empty(t, resp.Explanation)
}

func TestQueryDetails(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "580", "Query Process Database Systms", "Yu, Clement T", "FA22", 55, 8, 28),
		rec("CS", "580", "Query Process Database Systms", "Yu, Clement T", "FA23", 56.7, 3.3, 30),
		rec("CS", "580", "Query Process Database Systms", "Yu, Clement T", "SP21", 50, 10, 6),
		rec("CS", "580", "Query Process Database Systms", "Sintos, Stavros", "SP24", 90.3, 0, 31),
	}}

	it := model.NewIntent()
	it.Details = true
	it.Subject = strPtr("CS")
	it.ClassNum = strPtr("580")
	it.InstructorLike = strPtr("yu")

	resp, err := newTestService(store, it).Query(context.Background(), "details cs 580 yu", false)
	require.NoError(t, err)

	require.Len(t, resp.Results, 3, "details are not enrollment-filtered")
	assert.Zero(t, store.lastFilter.MinEnrollment)
	assert.Equal(t, "FA23", resp.Results[0].Semester, "most recent semester first")
	assert.Equal(t, "FA22", resp.Results[1].Semester)
	assert.Equal(t, "SP21", resp.Results[2].Semester)
}

func TestQueryDetailsNoMatchingInstructor(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "580", "Query Process Database Systms", "Sintos, Stavros", "SP24", 90.3, 0, 31),
	}}

	it := model.NewIntent()
	it.Details = true
	it.Subject = strPtr("CS")
	it.ClassNum = strPtr("580")
	it.InstructorLike = strPtr("yu")

	resp, err := newTestService(store, it).Query(context.Background(), "details cs 580 yu", false)
	require.NoError(t, err, "a complete triple with no matches is a valid empty answer")
	assert.Empty(t, resp.Results)
}

func TestQueryDetailsIncompleteIntent(t *testing.T) {
	store := &fakeStore{}

	it := model.NewIntent()
	it.Details = true
	it.Subject = strPtr("CS")
	it.ClassNum = strPtr("580")
	// no instructor

	_, err := newTestService(store, it).Query(context.Background(), "details cs 580", false)
	assert.ErrorIs(t, err, ErrIntentIncomplete)
}

func TestQueryStoreUnavailable(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}

	_, err := newTestService(store, model.NewIntent()).Query(context.Background(), "easy cs", false)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

// End-to-end through the real rule parser: "easy cs 580" restricts to CS
// 580 and sorts by A% descending.
func TestQueryWithRuleParser(t *testing.T) {
	store := &fakeStore{records: []model.GradeRecord{
		rec("CS", "580", "Query Process Database Systms", "Yu, Clement T", "FA23", 56.7, 3.3, 30),
		rec("CS", "580", "Query Process Database Systms", "Sintos, Stavros", "SP24", 90.3, 0, 31),
		rec("MATH", "210", "Calculus III", "Nobody", "FA23", 99, 0, 100),
	}}

	resolver := intent.NewResolver(intent.NewRuleParser([]string{"CS", "MATH"}), nil, zerolog.Nop())
	svc := NewQueryService(store, resolver, nil, testConfig, 0, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	resp, err := svc.Query(context.Background(), "easy cs 580", false)
	require.NoError(t, err)

	require.NotNil(t, resp.Intent.Subject)
	assert.Equal(t, "CS", *resp.Intent.Subject)
	require.Len(t, resp.Results, 2)
	assert.Contains(t, resp.Results[0].Instructor, "Sintos")
	assert.False(t, resp.UsedLLM)
}
