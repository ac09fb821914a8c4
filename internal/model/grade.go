package model

import (
	"strconv"
	"strings"
)

// GradeRecord is one course-section-semester row from the grade warehouse.
// Records are read-only after load. ARate and DFWRate are percentages in
// [0,100] computed from the stored letter-grade counts; their sum never
// exceeds 100 (the remaining mass is B/C and other grades).
type GradeRecord struct {
	Subject       string  `json:"subject"`
	ClassNum      string  `json:"class_num"`
	ClassTitle    string  `json:"class_title"`
	Instructor    string  `json:"instructor"`
	Semester      string  `json:"semester"` // e.g. "FA23"; "" when unknown
	ARate         float64 `json:"A_rate"`
	DFWRate       float64 `json:"DFW_rate"`
	TotalStudents int     `json:"total_students"`
}

// RankedResult is a GradeRecord with its 1-based position in the ranking.
type RankedResult struct {
	Rank int `json:"rank"`
	GradeRecord
}

// QueryResponse is the assembled answer for one natural-language query.
type QueryResponse struct {
	UsedLLM     bool           `json:"used_llm"`
	Intent      Intent         `json:"intent"`
	Results     []RankedResult `json:"results"`
	Explanation string         `json:"explanation,omitempty"`
}

// QueryRequest is the transport-level request body.
type QueryRequest struct {
	Message string `json:"message" binding:"required,max=500"`
	UseLLM  bool   `json:"use_llm"`
}

// SemesterYear extracts the four-digit year from a semester code like
// "FA23" or "SP24". Returns 0 when the code is malformed or empty.
func SemesterYear(semester string) int {
	if len(semester) != 4 {
		return 0
	}
	yy, err := strconv.Atoi(semester[2:])
	if err != nil {
		return 0
	}
	return 2000 + yy
}

// semesterTermRank orders terms within a year: spring before summer before fall.
func semesterTermRank(semester string) int {
	if len(semester) < 2 {
		return 0
	}
	switch strings.ToUpper(semester[:2]) {
	case "SP":
		return 1
	case "SU":
		return 2
	case "FA":
		return 3
	}
	return 0
}

// SemesterSortKey produces a sortable integer for a semester code so that
// chronological order is a plain numeric comparison. Unknown semesters sort
// before everything else.
func SemesterSortKey(semester string) int {
	year := SemesterYear(semester)
	if year == 0 {
		return 0
	}
	return year*10 + semesterTermRank(semester)
}
