// Package parser turns one free-text line into a structured task draft.
// It never fails: tokens it does not recognize are simply left in the title.
package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rfaulk/flicklist/internal/models"
)

// Draft is the structured output of parsing one input line, before persistence.
type Draft struct {
	Title    string
	DueDate  *time.Time
	Priority *models.Priority
	Tags     []string
}

// datePatterns are tried in order. When more than one matches independently,
// the first pattern in this list supplies the due date; all matched spans are
// still removed from the title.
var datePatterns = []struct {
	re      *regexp.Regexp
	resolve func(match []string, now time.Time) time.Time
}{
	{
		re:      regexp.MustCompile(`(?i)\btoday\b`),
		resolve: func(_ []string, now time.Time) time.Time { return now },
	},
	{
		re:      regexp.MustCompile(`(?i)\btomorrow\b`),
		resolve: func(_ []string, now time.Time) time.Time { return now.AddDate(0, 0, 1) },
	},
	{
		re: regexp.MustCompile(`(?i)\bnext (monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		resolve: func(match []string, now time.Time) time.Time {
			target := weekdays[strings.ToLower(match[1])]
			// Modulo-7 offset from the current weekday. If today already is the
			// named weekday the offset is 0, i.e. "next monday" on a Monday
			// resolves to today, not a week out.
			offset := (int(target) - int(now.Weekday()) + 7) % 7
			return now.AddDate(0, 0, offset)
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bin (\d+) (days?|weeks?)\b`),
		resolve: func(match []string, now time.Time) time.Time {
			n, _ := strconv.Atoi(match[1])
			if strings.HasPrefix(strings.ToLower(match[2]), "week") {
				n *= 7
			}
			return now.AddDate(0, 0, n)
		},
	},
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// priorityPatterns are tried in order; the first match wins.
var priorityPatterns = []struct {
	re    *regexp.Regexp
	value models.Priority
}{
	{regexp.MustCompile(`(?i)!high|!h|!1`), models.PriorityHigh},
	{regexp.MustCompile(`(?i)!medium|!m|!2`), models.PriorityMedium},
	{regexp.MustCompile(`(?i)!low|!l|!3`), models.PriorityLow},
}

var tagPattern = regexp.MustCompile(`#\w+`)

type span struct{ start, end int }

// Parse parses input relative to the current time.
func Parse(input string) *Draft {
	return ParseAt(input, time.Now())
}

// ParseAt parses input resolving relative date phrases against now.
func ParseAt(input string, now time.Time) *Draft {
	draft := &Draft{Tags: []string{}}
	var spans []span

	// Tags go first; their spans are masked out before date and priority
	// scanning so a tag like #in2 or #today cannot be read as a date phrase.
	tagSpans := tagPattern.FindAllStringIndex(input, -1)
	for _, loc := range tagSpans {
		draft.Tags = append(draft.Tags, input[loc[0]+1:loc[1]])
		spans = append(spans, span{loc[0], loc[1]})
	}
	masked := maskSpans(input, tagSpans)

	for _, p := range datePatterns {
		loc := p.re.FindStringSubmatchIndex(masked)
		if loc == nil {
			continue
		}
		if draft.DueDate == nil {
			match := submatches(masked, loc)
			due := p.resolve(match, now)
			draft.DueDate = &due
		}
		spans = append(spans, span{loc[0], loc[1]})
	}

	for _, p := range priorityPatterns {
		loc := p.re.FindStringIndex(masked)
		if loc == nil {
			continue
		}
		if draft.Priority == nil {
			v := p.value
			draft.Priority = &v
		}
		spans = append(spans, span{loc[0], loc[1]})
	}

	// Remove matched substrings in descending index order so earlier removals
	// do not shift the offsets of the ones still pending.
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })
	title := input
	for _, s := range spans {
		title = title[:s.start] + title[s.end:]
	}
	draft.Title = strings.Join(strings.Fields(title), " ")

	return draft
}

// maskSpans blanks out the given index ranges with spaces, preserving offsets.
func maskSpans(s string, spans [][]int) string {
	if len(spans) == 0 {
		return s
	}
	b := []byte(s)
	for _, loc := range spans {
		for i := loc[0]; i < loc[1]; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

// submatches extracts the full match and capture groups from submatch indexes.
func submatches(s string, loc []int) []string {
	out := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			out = append(out, "")
			continue
		}
		out = append(out, s[loc[i]:loc[i+1]])
	}
	return out
}
