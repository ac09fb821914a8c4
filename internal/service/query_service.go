package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/uicourseai/courseai-backend/internal/config"
	"github.com/uicourseai/courseai-backend/internal/model"
)

var (
	// ErrIntentIncomplete means a details query is missing subject,
	// course number, or instructor. The handler turns this into a
	// clarification request, not a server error.
	ErrIntentIncomplete = errors.New("details query needs subject, course number, and instructor")

	// ErrStoreUnavailable wraps record-store failures. These are fatal
	// for the request; the planner never retries the store.
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// GradeStore is the read-only record store the planner queries.
type GradeStore interface {
	Scan(ctx context.Context, f model.RecordFilter) ([]model.GradeRecord, error)
	ListSubjects(ctx context.Context) ([]string, error)
	ListSemesters(ctx context.Context) ([]string, error)
}

// IntentResolver parses free text, reporting whether the LLM path ran.
type IntentResolver interface {
	Resolve(ctx context.Context, text string, allowRemote bool) (model.Intent, bool)
}

// RankingConfig carries the planner's tuning knobs.
type RankingConfig struct {
	RecencyYears      int
	MinEnrollment     int
	MaxResults        int
	DetailResultLimit int
}

// QueryService owns the query pipeline: resolve intent, filter and rank
// the record store, assemble the response. Ranked responses are cached in
// Redis keyed by the normalized message.
type QueryService struct {
	store    GradeStore
	resolver IntentResolver
	rdb      *redis.Client // nil disables caching
	cfg      RankingConfig
	cacheTTL time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewQueryService(
	store GradeStore,
	resolver IntentResolver,
	rdb *redis.Client,
	cfg RankingConfig,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *QueryService {
	return &QueryService{
		store:    store,
		resolver: resolver,
		rdb:      rdb,
		cfg:      cfg,
		cacheTTL: cacheTTL,
		now:      time.Now,
		log:      log.With().Str("component", "query_service").Logger(),
	}
}

// Query answers one natural-language question end to end.
func (s *QueryService) Query(ctx context.Context, message string, useLLM bool) (*model.QueryResponse, error) {
	cacheKey := config.CacheKey.QueryResultKey(message, useLLM)
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	it, usedLLM := s.resolver.Resolve(ctx, message, useLLM)

	var (
		results []model.RankedResult
		relax   relaxations
		err     error
	)
	if it.Details {
		results, err = s.details(ctx, it)
	} else {
		results, relax, err = s.rank(ctx, it)
	}
	if err != nil {
		return nil, err
	}

	resp := &model.QueryResponse{
		UsedLLM: usedLLM,
		Intent:  it,
		Results: results,
	}
	if it.Explain {
		resp.Explanation = s.buildExplanation(it, relax)
	}

	s.cacheSet(ctx, cacheKey, resp)
	return resp, nil
}

// relaxations records which soft filters were dropped to avoid an empty
// result set, so the explanation can say so.
type relaxations struct {
	keywords bool
	recency  bool
}

// rank runs the list-and-rank path: push hard predicates to the store,
// apply the soft (relaxable) filters in memory, sort, truncate.
func (s *QueryService) rank(ctx context.Context, it model.Intent) ([]model.RankedResult, relaxations, error) {
	filter := model.RecordFilter{
		Subject:        it.Subject,
		InstructorLike: it.InstructorLike,
		MinEnrollment:  s.cfg.MinEnrollment,
	}
	if it.ClassNum != nil {
		filter.ClassNum = it.ClassNum
	} else if it.Level != nil {
		filter.LevelRange(*it.Level)
	}

	records, err := s.store.Scan(ctx, filter)
	if err != nil {
		return nil, relaxations{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var relax relaxations

	// Keyword filter relaxes on zero matches: topic words are noisy and
	// must never turn a valid query into an empty answer.
	if len(it.Keywords) > 0 {
		matched := filterKeywords(records, it.Keywords)
		if len(matched) > 0 {
			records = matched
		} else if len(records) > 0 {
			relax.keywords = true
		}
	}

	// Recency relaxes the same way.
	if it.Recent {
		cutoff := s.now().Year() - s.cfg.RecencyYears
		matched := filterRecent(records, cutoff)
		if len(matched) > 0 {
			records = matched
		} else if len(records) > 0 {
			relax.recency = true
		}
	}

	slices.SortFunc(records, recordCompare(it.Polarity))
	if len(records) > s.cfg.MaxResults {
		records = records[:s.cfg.MaxResults]
	}

	return attachRanks(records), relax, nil
}

// details runs the drill-down path: every semester for one exact
// subject + course + instructor triple, newest first. The enrollment floor
// is not applied here — the user asked for this specific history.
func (s *QueryService) details(ctx context.Context, it model.Intent) ([]model.RankedResult, error) {
	if it.Subject == nil || it.ClassNum == nil || it.InstructorLike == nil {
		return nil, ErrIntentIncomplete
	}

	records, err := s.store.Scan(ctx, model.RecordFilter{
		Subject:        it.Subject,
		ClassNum:       it.ClassNum,
		InstructorLike: it.InstructorLike,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	slices.SortFunc(records, compareSemesterDesc)
	if s.cfg.DetailResultLimit > 0 && len(records) > s.cfg.DetailResultLimit {
		records = records[:s.cfg.DetailResultLimit]
	}

	return attachRanks(records), nil
}

func attachRanks(records []model.GradeRecord) []model.RankedResult {
	results := make([]model.RankedResult, len(records))
	for i, rec := range records {
		results[i] = model.RankedResult{Rank: i + 1, GradeRecord: rec}
	}
	return results
}

// topicAliases expands well-known topic shorthands into the title
// substrings that actually appear in catalog data.
var topicAliases = map[string][]string{
	"ml":        {"machine", "learning", "ai"},
	"ai":        {"artificial", "intelligence", "ai"},
	"data":      {"data", "mining"},
	"nlp":       {"language", "nlp", "text"},
	"ir":        {"query", "retrieval", "information"},
	"retrieval": {"query", "retrieval", "information"},
	"stats":     {"statistic", "probability"},
	"systems":   {"operating", "network", "system"},
	"theory":    {"algorithm", "complexity", "theory"},
	"bio":       {"bio", "medical"},
}

// filterKeywords keeps records whose title or subject contains any keyword
// (or alias of it) as a case-insensitive substring.
func filterKeywords(records []model.GradeRecord, keywords []string) []model.GradeRecord {
	var matched []model.GradeRecord
	for _, rec := range records {
		haystack := strings.ToLower(rec.ClassTitle + " " + rec.Subject)
		if anyKeywordMatches(haystack, keywords) {
			matched = append(matched, rec)
		}
	}
	return matched
}

func anyKeywordMatches(haystack string, keywords []string) bool {
	for _, k := range keywords {
		terms, ok := topicAliases[k]
		if !ok {
			terms = []string{k}
		}
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				return true
			}
		}
	}
	return false
}

// filterRecent keeps records whose semester year is at or after cutoff.
// Records with unknown semesters are never recent.
func filterRecent(records []model.GradeRecord, cutoff int) []model.GradeRecord {
	var matched []model.GradeRecord
	for _, rec := range records {
		if year := model.SemesterYear(rec.Semester); year >= cutoff && year > 0 {
			matched = append(matched, rec)
		}
	}
	return matched
}

// buildExplanation renders a deterministic rationale for the applied
// filters and sort order. This is string assembly, never a second LLM call.
func (s *QueryService) buildExplanation(it model.Intent, relax relaxations) string {
	var b strings.Builder

	if it.Polarity == model.PolarityHard {
		b.WriteString("Hardest sections first: sorted by DFW% descending, then A% ascending, then enrollment")
	} else {
		b.WriteString("Easiest sections first: sorted by A% descending, then DFW% ascending, then enrollment")
	}

	var filters []string
	if it.Subject != nil {
		filters = append(filters, "subject "+*it.Subject)
	}
	if it.ClassNum != nil {
		filters = append(filters, "course "+*it.ClassNum)
	} else if it.Level != nil {
		filters = append(filters, fmt.Sprintf("%d-level", *it.Level))
	}
	if len(it.Keywords) > 0 {
		if relax.keywords {
			filters = append(filters, fmt.Sprintf("topic %s (matched nothing, ignored)", strings.Join(it.Keywords, "/")))
		} else {
			filters = append(filters, "topic "+strings.Join(it.Keywords, "/"))
		}
	}
	if it.InstructorLike != nil {
		filters = append(filters, "instructor ~"+*it.InstructorLike)
	}
	if it.Recent {
		if relax.recency {
			filters = append(filters, fmt.Sprintf("recent semesters (last %d years; none matched, ignored)", s.cfg.RecencyYears))
		} else {
			filters = append(filters, fmt.Sprintf("recent semesters (last %d years)", s.cfg.RecencyYears))
		}
	}
	filters = append(filters, fmt.Sprintf("minimum enrollment %d", s.cfg.MinEnrollment))

	b.WriteString(". Filters: ")
	b.WriteString(strings.Join(filters, "; "))
	b.WriteString(".")
	return b.String()
}

func (s *QueryService) cacheGet(ctx context.Context, key string) *model.QueryResponse {
	if s.rdb == nil {
		return nil
	}
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Debug().Err(err).Msg("query cache read failed")
		}
		return nil
	}
	var resp model.QueryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.log.Debug().Err(err).Msg("query cache entry corrupt")
		return nil
	}
	return &resp
}

func (s *QueryService) cacheSet(ctx context.Context, key string, resp *model.QueryResponse) {
	if s.rdb == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.log.Debug().Err(err).Msg("query cache write failed")
	}
}
