package model

// RecordFilter is the set of optional column-level predicates the planner
// pushes down to the record store. All set predicates apply conjunctively.
type RecordFilter struct {
	Subject        *string // exact, case-insensitive
	ClassNum       *string // exact
	LevelMin       *int    // numeric class_num range, inclusive
	LevelMax       *int
	InstructorLike *string // case-insensitive substring
	MinEnrollment  int     // strict noise floor, always applied
}

// LevelRange sets the [level, level+99] course-number window.
func (f *RecordFilter) LevelRange(level int) {
	hi := level + 99
	f.LevelMin = &level
	f.LevelMax = &hi
}
