package score

// gradeStep maps an inclusive lower bound to a letter grade
type gradeStep struct {
	min   int
	grade string
}

// gradeLadder is ordered from the highest bound down
var gradeLadder = []gradeStep{
	{90, "A+"},
	{85, "A"},
	{80, "A-"},
	{75, "B+"},
	{70, "B"},
	{65, "B-"},
	{60, "C+"},
	{55, "C"},
	{50, "C-"},
	{45, "D+"},
	{40, "D"},
}

// Grade converts a 0-100 score into a letter grade
func Grade(score int) string {
	for _, step := range gradeLadder {
		if score >= step.min {
			return step.grade
		}
	}
	return "F"
}
