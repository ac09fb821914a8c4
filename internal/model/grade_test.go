package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSemesterYear(t *testing.T) {
	tests := []struct {
		semester string
		want     int
	}{
		{"FA23", 2023},
		{"SP24", 2024},
		{"SU19", 2019},
		{"fa23", 2023},
		{"", 0},
		{"FALL2023", 0},
		{"FAxx", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SemesterYear(tt.semester), "semester %q", tt.semester)
	}
}

func TestSemesterSortKeyOrdersChronologically(t *testing.T) {
	ordered := []string{"", "SP23", "SU23", "FA23", "SP24", "FA24"}
	for i := 1; i < len(ordered); i++ {
		assert.Less(t,
			SemesterSortKey(ordered[i-1]),
			SemesterSortKey(ordered[i]),
			"%q should sort before %q", ordered[i-1], ordered[i])
	}
}

func TestRecordFilterLevelRange(t *testing.T) {
	var f RecordFilter
	f.LevelRange(500)
	assert.Equal(t, 500, *f.LevelMin)
	assert.Equal(t, 599, *f.LevelMax)
}
