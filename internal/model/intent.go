package model

// Polarity says whether the user wants lenient or punishing sections.
type Polarity string

const (
	PolarityEasy Polarity = "easy" // high A%, low D/F/W
	PolarityHard Polarity = "hard" // high D/F/W, low A%
)

// Intent is the structured form of one free-text query. It is built once
// per request (by the rule parser or the LLM parser) and never mutated.
// Optional filters are nil when the text did not mention them.
type Intent struct {
	Polarity       Polarity `json:"polarity"`
	Subject        *string  `json:"subject"`         // e.g. "CS"
	ClassNum       *string  `json:"class_num"`       // e.g. "580"
	Keywords       []string `json:"keywords"`        // lowercase, deduped, insertion order
	Recent         bool     `json:"recent"`          // restrict to the recency window
	Level          *int     `json:"level"`           // 100/200/.../500 tier
	InstructorLike *string  `json:"instructor_like"` // substring match target
	Explain        bool     `json:"explain"`         // include a rationale string
	Details        bool     `json:"details"`         // semester-by-semester drill-down
}

// NewIntent returns the zero-information intent: no filters, easy polarity.
// This is also the worst-case output of the parser pipeline.
func NewIntent() Intent {
	return Intent{Polarity: PolarityEasy, Keywords: []string{}}
}
