package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
)

// Export encodes the document as indented JSON. Field order follows the model
// struct tags so repeated exports of the same state are byte-identical.
func Export(doc *models.Document) ([]byte, error) {
	out := doc.Clone()
	out.Normalize()
	if out.Version == "" {
		out.Version = models.DocumentVersion
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportFileName is the download name offered for an export taken at now.
func ExportFileName(now time.Time) string {
	return "study-planner-" + models.FormatDate(now) + ".json"
}

// Import decodes and validates a document. Nothing is returned unless the whole
// payload is acceptable; every failure wraps ErrInvalidDocument.
func Import(data []byte) (*models.Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	version, err := decodeVersion(raw["version"])
	if err != nil {
		return nil, err
	}
	for _, key := range []string{"goals", "tasks"} {
		if !isArray(raw[key]) {
			return nil, fmt.Errorf("%w: %s must be an array", ErrInvalidDocument, key)
		}
	}

	doc := models.NewDocument()
	if settings, ok := raw["settings"]; ok && !isNull(settings) {
		if err := json.Unmarshal(settings, &doc.Settings); err != nil {
			return nil, fmt.Errorf("%w: settings: %v", ErrInvalidDocument, err)
		}
	}
	if err := json.Unmarshal(raw["goals"], &doc.Goals); err != nil {
		return nil, fmt.Errorf("%w: goals: %v", ErrInvalidDocument, err)
	}
	if err := json.Unmarshal(raw["tasks"], &doc.Tasks); err != nil {
		return nil, fmt.Errorf("%w: tasks: %v", ErrInvalidDocument, err)
	}
	doc.Version = version

	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	doc.Normalize()
	doc.ReconcileGoalTasks()
	return doc, nil
}

func decodeVersion(field json.RawMessage) (string, error) {
	if len(field) == 0 || isNull(field) {
		return "", fmt.Errorf("%w: version is required", ErrInvalidDocument)
	}

	var s string
	if err := json.Unmarshal(field, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("%w: version is required", ErrInvalidDocument)
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(field, &n); err != nil {
		return "", fmt.Errorf("%w: version must be a string or number", ErrInvalidDocument)
	}
	if n.String() == "0" {
		return "", fmt.Errorf("%w: version is required", ErrInvalidDocument)
	}
	return n.String(), nil
}

func validateDocument(doc *models.Document) error {
	goalIDs := make(map[string]bool, len(doc.Goals))
	for i, g := range doc.Goals {
		if g.ID == "" {
			return fmt.Errorf("%w: goals[%d] has no id", ErrInvalidDocument, i)
		}
		if goalIDs[g.ID] {
			return fmt.Errorf("%w: duplicate goal id %q", ErrInvalidDocument, g.ID)
		}
		goalIDs[g.ID] = true
		if err := checkGoalTimeline(&doc.Goals[i]); err != nil {
			return err
		}
	}

	taskIDs := make(map[string]bool, len(doc.Tasks))
	for i, t := range doc.Tasks {
		if t.ID == "" {
			return fmt.Errorf("%w: tasks[%d] has no id", ErrInvalidDocument, i)
		}
		if taskIDs[t.ID] {
			return fmt.Errorf("%w: duplicate task id %q", ErrInvalidDocument, t.ID)
		}
		taskIDs[t.ID] = true
		if r := t.Reminder; r != nil && r.Repeat != "" && !r.Repeat.Valid() {
			return fmt.Errorf("%w: task %q has unknown repeat mode %q", ErrInvalidDocument, t.ID, r.Repeat)
		}
	}
	return nil
}

// checkGoalTimeline clears blank timeline dates and rejects malformed or
// reversed ones, matching what goal inputs accept.
func checkGoalTimeline(g *models.Goal) error {
	dates := make([]time.Time, 0, 2)
	for _, f := range []struct {
		name string
		v    **string
	}{{"timelineStart", &g.TimelineStart}, {"timelineEnd", &g.TimelineEnd}} {
		if *f.v == nil {
			continue
		}
		s := strings.TrimSpace(**f.v)
		if s == "" {
			*f.v = nil
			continue
		}
		d, err := models.ParseDate(s, time.UTC)
		if err != nil {
			return fmt.Errorf("%w: goal %q has invalid %s: %v", ErrInvalidDocument, g.ID, f.name, err)
		}
		*f.v = &s
		dates = append(dates, d)
	}
	if len(dates) == 2 && dates[1].Before(dates[0]) {
		return fmt.Errorf("%w: goal %q ends before it starts", ErrInvalidDocument, g.ID)
	}
	return nil
}

func isArray(field json.RawMessage) bool {
	trimmed := bytes.TrimSpace(field)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isNull(field json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(field), []byte("null"))
}
