package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/uicourseai/courseai-backend/internal/model"
)

// maxResponseSize caps the completion body read to guard against a
// misbehaving endpoint streaming unbounded output.
const maxResponseSize = 1 << 20 // 1MB

const systemPrompt = `You are an intent parser for a course-selection assistant.
You NEVER answer the question directly. Your ONLY job is to convert the
user's text into a structured JSON intent object with ALL of these keys:

- polarity: "easy" or "hard". "easier", "chill", "lenient" mean easy;
  "strict", "tough", "difficult", "challenging" mean hard. Default "easy".
- subject: uppercase subject code like "CS" or "STAT", or null.
- class_num: course number as a string like "580", or null.
- keywords: list of lowercase topic words from the query, or [].
- recent: true if the user wants recent semesters ("recent", "lately",
  "last few years"), else false.
- level: integer like 500 for "500-level", or null. Leave null when an
  explicit course number already carries it.
- instructor_like: short lowercase fragment of an instructor name, or null.
- explain: true if the user asks why or for reasoning, else false.
- details: true if the user wants a semester-by-semester breakdown, else false.

Output ONLY the JSON object. No extra text, no markdown.`

// fewShot pairs ground the model on the exact output shape.
var fewShot = []struct {
	user   string
	intent string
}{
	{
		"easy cs 580 recent",
		`{"polarity":"easy","subject":"CS","class_num":"580","keywords":[],"recent":true,"level":null,"instructor_like":null,"explain":false,"details":false}`,
	},
	{
		"hard 500-level ml classes",
		`{"polarity":"hard","subject":null,"class_num":null,"keywords":["ml"],"recent":false,"level":500,"instructor_like":null,"explain":false,"details":false}`,
	},
	{
		"details for cs 580 yu",
		`{"polarity":"easy","subject":"CS","class_num":"580","keywords":[],"recent":false,"level":null,"instructor_like":"yu","explain":false,"details":true}`,
	},
}

// LLMConfig carries the remote extraction endpoint settings.
type LLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// LLMParser extracts intents with a single bounded chat-completion call.
// Any failure — timeout, transport error, non-200, malformed or
// schema-violating output — is returned as an error for the Resolver to
// swallow; the parser performs no retries itself.
type LLMParser struct {
	cfg        LLMConfig
	httpClient *http.Client
	log        zerolog.Logger
}

// NewLLMParser builds an LLMParser with its own timeout-bounded HTTP client.
func NewLLMParser(cfg LLMConfig, log zerolog.Logger) *LLMParser {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &LLMParser{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "llm_parser").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Parse sends the query to the chat-completions endpoint and normalizes
// the returned JSON into a model.Intent.
func (p *LLMParser) Parse(ctx context.Context, text string) (model.Intent, error) {
	body, err := json.Marshal(chatRequest{
		Model:       p.cfg.Model,
		Temperature: 0,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(text)},
		},
	})
	if err != nil {
		return model.Intent{}, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(p.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.Intent{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return model.Intent{}, fmt.Errorf("completion call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Intent{}, fmt.Errorf("completion call: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return model.Intent{}, fmt.Errorf("read response: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return model.Intent{}, fmt.Errorf("decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return model.Intent{}, fmt.Errorf("empty choices")
	}

	it, err := normalizeIntentJSON(cr.Choices[0].Message.Content)
	if err != nil {
		return model.Intent{}, err
	}

	p.log.Debug().
		Dur("elapsed", time.Since(start)).
		Str("model", p.cfg.Model).
		Msg("LLM intent extracted")
	return it, nil
}

func buildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Here are examples of how to map natural language to intent JSON:\n\n")
	for _, ex := range fewShot {
		fmt.Fprintf(&b, "User: %s\nIntent JSON: %s\n\n", ex.user, ex.intent)
	}
	fmt.Fprintf(&b, "Now parse this new user query into an intent JSON:\n\nUser: %s\nIntent JSON:", text)
	return b.String()
}

// rawIntent tolerates the type drift LLMs produce (numeric class_num,
// fractional level) while still rejecting structurally wrong payloads.
type rawIntent struct {
	Polarity       string          `json:"polarity"`
	Subject        *string         `json:"subject"`
	ClassNum       json.RawMessage `json:"class_num"`
	Keywords       []string        `json:"keywords"`
	Recent         bool            `json:"recent"`
	Level          *float64        `json:"level"`
	InstructorLike *string         `json:"instructor_like"`
	Explain        bool            `json:"explain"`
	Details        bool            `json:"details"`
}

// normalizeIntentJSON validates the extracted object against the intent
// schema. Schema violations are errors, not best-effort guesses — the
// rule parser is the recovery path.
func normalizeIntentJSON(content string) (model.Intent, error) {
	payload := extractJSON(content)
	if payload == "" {
		return model.Intent{}, fmt.Errorf("no JSON object in completion")
	}

	var raw rawIntent
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return model.Intent{}, fmt.Errorf("decode intent: %w", err)
	}

	it := model.NewIntent()

	switch strings.ToLower(raw.Polarity) {
	case "easy":
		it.Polarity = model.PolarityEasy
	case "hard":
		it.Polarity = model.PolarityHard
	default:
		return model.Intent{}, fmt.Errorf("invalid polarity %q", raw.Polarity)
	}

	if raw.Subject != nil && strings.TrimSpace(*raw.Subject) != "" {
		subject := strings.ToUpper(strings.TrimSpace(*raw.Subject))
		it.Subject = &subject
	}

	if num := normalizeClassNum(raw.ClassNum); num != "" {
		it.ClassNum = &num
	}

	seen := make(map[string]bool)
	for _, k := range raw.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		it.Keywords = append(it.Keywords, k)
	}

	it.Recent = raw.Recent
	if raw.Level != nil {
		level := int(*raw.Level)
		it.Level = &level
	}
	if raw.InstructorLike != nil && strings.TrimSpace(*raw.InstructorLike) != "" {
		name := strings.ToLower(strings.TrimSpace(*raw.InstructorLike))
		it.InstructorLike = &name
	}
	it.Explain = raw.Explain
	it.Details = raw.Details

	return it, nil
}

// normalizeClassNum accepts "580", 580, or 580.0 and returns the string
// form, or "" when absent or unusable.
func normalizeClassNum(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("%d", int(n))
	}
	return ""
}
