package syllabus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mycally/internal/priority"
)

var (
	mentionRe   = regexp.MustCompile(`(?i)\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)[.\s]+(\d{1,2})(?:[,\s]+(\d{4}))?(?:[:\s-]+([^.!?\n]+))?`)
	highWordsRe = regexp.MustCompile(`(?i)\b(?:exam|final|midterm|test|quiz)\b`)
	midWordsRe  = regexp.MustCompile(`(?i)\b(?:assignment|project|paper|due|deadline)\b`)
	spaceRe     = regexp.MustCompile(`\s`)
)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Heuristic scans plain text for "Month Day[, Year] - description" mentions.
// Each becomes a 09:00-10:00 event; mentions before January 1 of last year
// are skipped.
func Heuristic(text string, now time.Time, loc *time.Location) Extraction {
	out := Extraction{Events: []Event{}, Source: SourceHeuristic}
	now = now.In(loc)
	cutoff := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, loc)

	for _, m := range mentionRe.FindAllStringSubmatch(text, -1) {
		month := monthIndex[strings.ToLower(m[0][:3])]
		day, _ := strconv.Atoi(m[1])
		year := now.Year()
		if m[2] != "" {
			year, _ = strconv.Atoi(m[2])
		}
		start := time.Date(year, month, day, 9, 0, 0, 0, loc)
		if day < 1 || start.Day() != day || start.Before(cutoff) {
			continue
		}
		desc := strings.TrimSpace(m[3])
		if desc == "" {
			desc = "Unknown event"
		}

		level, category := priority.Low, "event"
		switch {
		case highWordsRe.MatchString(desc):
			level, category = priority.High, "exam"
		case midWordsRe.MatchString(desc):
			level, category = priority.Medium, "assignment"
		}

		short := []rune(desc)
		if len(short) > 10 {
			short = short[:10]
		}
		out.Events = append(out.Events, Event{
			ID:        fmt.Sprintf("syllabus-%d-%d-%d-%s", int(month), day, year, spaceRe.ReplaceAllString(string(short), "")),
			Title:     desc,
			Category:  category,
			Priority:  level,
			StartDate: start,
			EndDate:   start.Add(time.Hour),
		})
	}
	return out
}
