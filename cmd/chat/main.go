// chat is an interactive terminal client for the query pipeline. It talks
// to the warehouse directly rather than through the HTTP API, which makes
// it handy for poking at ranking behavior during data loads.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/uicourseai/courseai-backend/internal/config"
	"github.com/uicourseai/courseai-backend/internal/database"
	"github.com/uicourseai/courseai-backend/internal/intent"
	"github.com/uicourseai/courseai-backend/internal/logger"
	"github.com/uicourseai/courseai-backend/internal/model"
	"github.com/uicourseai/courseai-backend/internal/repository"
	"github.com/uicourseai/courseai-backend/internal/service"
)

func main() {
	var useLLM bool
	flag.BoolVar(&useLLM, "llm", false, "Use the LLM intent parser when enabled in config")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup("warn", cfg.LogFormat) // keep the REPL quiet

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	gradeRepo := repository.NewGradeRepository(pool)

	ruleParser := intent.NewRuleParser(cfg.SubjectCodes)
	var llmParser intent.Parser
	if cfg.LLMEnabled {
		llmParser = intent.NewLLMParser(intent.LLMConfig{
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			APIKey:  cfg.LLMAPIKey,
			Timeout: cfg.LLMTimeout,
		}, log)
	}
	resolver := intent.NewResolver(ruleParser, llmParser, log)

	// No Redis in the REPL; every query hits the warehouse fresh.
	queryService := service.NewQueryService(gradeRepo, resolver, nil, service.RankingConfig{
		RecencyYears:      cfg.RecencyYears,
		MinEnrollment:     cfg.MinEnrollment,
		MaxResults:        cfg.MaxResults,
		DetailResultLimit: cfg.DetailResultLimit,
	}, 0, log)

	fmt.Println("CourseAI chat — ask about easy or hard courses.")
	fmt.Println(`Try: "easy cs 580", "show easy ml courses", "details cs 580 yu".`)
	fmt.Println(`Type "help" for tips, "exit" to quit.`)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return
		case "help":
			printHelp()
			continue
		}

		resp, err := queryService.Query(ctx, line, useLLM)
		if err != nil {
			if errors.Is(err, service.ErrIntentIncomplete) {
				fmt.Println("I need a subject, a course number, and an instructor for a details query, e.g. \"details cs 580 yu\".")
			} else {
				fmt.Printf("query failed: %v\n", err)
			}
			continue
		}
		printResponse(resp)
	}
}

func printHelp() {
	fmt.Println("Examples:")
	fmt.Println("  easy cs 580")
	fmt.Println("  hard 500-level ml classes recent")
	fmt.Println("  show easy data courses --explain")
	fmt.Println("  details cs 580 yu")
	fmt.Println("Flags: --explain prints why results ranked the way they did.")
	fmt.Println("Run with -llm to route parsing through the LLM (LLM_ENABLED=true required).")
}

func printResponse(resp *model.QueryResponse) {
	if len(resp.Results) == 0 {
		fmt.Println("No matching sections. Try adjusting subject, course number, keywords, or recency.")
		return
	}

	if resp.Intent.Details {
		fmt.Println("Semester-by-semester (most recent first):")
	} else if resp.Intent.Polarity == model.PolarityHard {
		fmt.Println("Hardest picks (higher DFW%, lower A%):")
	} else {
		fmt.Println("Easiest picks (higher A%, lower DFW%):")
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCourse\tInstructor\tSem\tA%\tDFW%\tStudents")
	for _, r := range resp.Results {
		fmt.Fprintf(w, "%d\t%s %s — %s\t%s\t%s\t%.1f\t%.1f\t%d\n",
			r.Rank, r.Subject, r.ClassNum, r.ClassTitle,
			r.Instructor, r.Semester, r.ARate, r.DFWRate, r.TotalStudents)
	}
	w.Flush()

	if resp.Explanation != "" {
		fmt.Println("Why: " + resp.Explanation)
	}
	if resp.UsedLLM {
		fmt.Println("(intent parsed by LLM)")
	}
}
