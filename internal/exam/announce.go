package exam

import (
	"fmt"
	"strings"
)

// ProblemURLBase is where problems are linked from the announcement.
const ProblemURLBase = "https://www.acmicpc.net/problem/"

// ProblemURL links a problem statement.
func ProblemURL(id int) string {
	return fmt.Sprintf("%s%d", ProblemURLBase, id)
}

var rules = []string{
	"Move into the problem folder and edit the main file.",
	"Check the samples with `mockct test`.",
	"Submit with `mockct run`.",
	"Web search is limited to standard library documentation.",
	"Spend five minutes after the exam summarizing and discussing solutions.",
}

// Announcement renders the participant notice as markdown.
func Announcement(examCode string, duration int, sels []Selection) string {
	problems := Flatten(sels)
	var b strings.Builder
	b.WriteString("# Mock coding test\n\n")
	if examCode != "" {
		fmt.Fprintf(&b, "- **Exam code**: %s\n", examCode)
	}
	fmt.Fprintf(&b, "- **Time limit**: %d minutes\n", duration)
	fmt.Fprintf(&b, "- **Problems**: %d\n\n", len(problems))

	b.WriteString("## Buckets\n")
	for _, s := range sels {
		fmt.Fprintf(&b, "- %s: %s x %d\n", s.Bucket.Name, s.Bucket.Range, s.Bucket.Count)
	}

	b.WriteString("\n## Rules\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	b.WriteString("\n## Problems\n")
	for i, p := range problems {
		fmt.Fprintf(&b, "**Q%d. [%d] %s** (%s)  \n%s\n", i+1, p.ProblemID, p.DisplayTitle(), TierName(p.Level), ProblemURL(p.ProblemID))
	}
	return b.String()
}

// Listing is the short console form of the picked problems.
func Listing(problems []Problem) []string {
	lines := make([]string, 0, len(problems))
	for i, p := range problems {
		lines = append(lines, fmt.Sprintf("Q%d. [%d] %s (%s) -> %s", i+1, p.ProblemID, p.DisplayTitle(), TierName(p.Level), ProblemURL(p.ProblemID)))
	}
	return lines
}
