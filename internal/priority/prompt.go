package priority

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mycally/internal/canvas"
)

const descriptionLimit = 200

type promptAssignment struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Course         string     `json:"course"`
	DueAt          *time.Time `json:"due_at"`
	CreatedAt      *time.Time `json:"created_at"`
	DaysUntilDue   *int       `json:"days_until_due"`
	PointsPossible float64    `json:"points_possible"`
	Description    string     `json:"description"`
}

// BuildPrompt embeds a compact projection of list in the ranking instructions.
func BuildPrompt(list []canvas.ProcessedAssignment) (string, error) {
	projected := make([]promptAssignment, 0, len(list))
	for _, a := range list {
		projected = append(projected, promptAssignment{
			ID:             a.ID,
			Name:           a.Name,
			Course:         a.Course,
			DueAt:          a.DueAt,
			CreatedAt:      a.CreatedAt,
			DaysUntilDue:   a.DaysUntilDue,
			PointsPossible: a.PointsPossible,
			Description:    truncateDescription(a.Description),
		})
	}
	raw, err := json.MarshalIndent(projected, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are an AI study assistant helping a student prioritize their Canvas assignments.\n")
	b.WriteString("Analyze these assignments and prioritize them based on:\n")
	b.WriteString("1. Due date (more urgent = higher priority)\n")
	b.WriteString("2. Point value (higher points = higher priority)\n")
	b.WriteString("3. Estimated time required (based on description complexity)\n\n")
	b.WriteString("Here are the assignments in JSON format:\n")
	b.Write(raw)
	b.WriteString("\n\nFor each assignment, respond with a priority level (high, medium, or low) and a short note explaining why.\n")
	b.WriteString("Format your response as a valid JSON array with objects containing: id, priority, and notes.\n")
	b.WriteString(`Example: [{"id": 123, "priority": "high", "notes": "Due very soon and worth many points"}]`)
	b.WriteString("\n")
	return b.String(), nil
}

func truncateDescription(s string) string {
	if s == "" {
		return "No description"
	}
	r := []rune(s)
	if len(r) > descriptionLimit {
		r = r[:descriptionLimit]
	}
	return string(r) + "..."
}

// ErrInvalidResponse marks a model answer that is not an array of complete assessments.
var ErrInvalidResponse = errors.New("priority: invalid model response")

// ParseAssessments validates the model's answer. Every element must be an
// object carrying id, priority and notes, otherwise the whole answer is rejected.
func ParseAssessments(text string) ([]Assessment, error) {
	text = stripCodeFence(text)
	var items []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: answer is not an array", ErrInvalidResponse)
	}
	out := make([]Assessment, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("%w: item %d is not an object", ErrInvalidResponse, i)
		}
		rawID, okID := item["id"]
		rawPriority, okPriority := item["priority"]
		rawNotes, okNotes := item["notes"]
		if !okID || !okPriority || !okNotes {
			return nil, fmt.Errorf("%w: item %d lacks id, priority or notes", ErrInvalidResponse, i)
		}
		id, err := parseID(rawID)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidResponse, i, err)
		}
		var level, notes string
		_ = json.Unmarshal(rawPriority, &level)
		_ = json.Unmarshal(rawNotes, &notes)
		out = append(out, Assessment{ID: id, Priority: Level(strings.ToLower(strings.TrimSpace(level))), Notes: notes})
	}
	return out, nil
}

func parseID(raw json.RawMessage) (int64, error) {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case json.Number:
		n = t
	case string:
		n = json.Number(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("id has type %T", v)
	}
	id, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q is not an integer", n.String())
	}
	return id, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
