package service

import (
	"cmp"

	"github.com/uicourseai/courseai-backend/internal/model"
)

// recordCompare returns the polarity's sort comparator. Easy prefers high
// A% then low DFW%; hard prefers high DFW% then low A%. Both prefer larger
// enrollments when the rates tie, and fall through to a lexical tie-break
// so identical inputs always rank identically.
func recordCompare(polarity model.Polarity) func(a, b model.GradeRecord) int {
	if polarity == model.PolarityHard {
		return func(a, b model.GradeRecord) int {
			if c := cmp.Compare(b.DFWRate, a.DFWRate); c != 0 {
				return c
			}
			if c := cmp.Compare(a.ARate, b.ARate); c != 0 {
				return c
			}
			return tieBreak(a, b)
		}
	}
	return func(a, b model.GradeRecord) int {
		if c := cmp.Compare(b.ARate, a.ARate); c != 0 {
			return c
		}
		if c := cmp.Compare(a.DFWRate, b.DFWRate); c != 0 {
			return c
		}
		return tieBreak(a, b)
	}
}

func tieBreak(a, b model.GradeRecord) int {
	if c := cmp.Compare(b.TotalStudents, a.TotalStudents); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Subject, b.Subject); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ClassNum, b.ClassNum); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Instructor, b.Instructor); c != 0 {
		return c
	}
	return cmp.Compare(a.Semester, b.Semester)
}

// compareSemesterDesc orders detail rows most recent semester first.
func compareSemesterDesc(a, b model.GradeRecord) int {
	if c := cmp.Compare(model.SemesterSortKey(b.Semester), model.SemesterSortKey(a.Semester)); c != 0 {
		return c
	}
	return tieBreak(a, b)
}
