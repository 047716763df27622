package models

// DocumentVersion is written into every exported document.
const DocumentVersion = "1"

type Settings struct {
	NotificationsAllowed bool `json:"notificationsAllowed"`
}

// Document is the single persisted unit: settings plus both entity collections.
type Document struct {
	Version  string   `json:"version"`
	Settings Settings `json:"settings"`
	Goals    []Goal   `json:"goals"`
	Tasks    []Task   `json:"tasks"`
}

func NewDocument() *Document {
	return &Document{
		Version: DocumentVersion,
		Goals:   []Goal{},
		Tasks:   []Task{},
	}
}

func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Version:  d.Version,
		Settings: d.Settings,
		Goals:    make([]Goal, len(d.Goals)),
		Tasks:    make([]Task, len(d.Tasks)),
	}
	for i, g := range d.Goals {
		out.Goals[i] = g.Clone()
	}
	for i, t := range d.Tasks {
		out.Tasks[i] = t.Clone()
	}
	return out
}

// Normalize replaces nil slices with empty ones so the document encodes [] rather than null.
func (d *Document) Normalize() {
	if d.Goals == nil {
		d.Goals = []Goal{}
	}
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	for i := range d.Goals {
		if d.Goals[i].Tags == nil {
			d.Goals[i].Tags = []string{}
		}
		if d.Goals[i].Tasks == nil {
			d.Goals[i].Tasks = []string{}
		}
	}
	for i := range d.Tasks {
		if d.Tasks[i].Tags == nil {
			d.Tasks[i].Tags = []string{}
		}
		if r := d.Tasks[i].Reminder; r != nil && r.Repeat == "" {
			r.Repeat = RepeatNone
		}
	}
}

// ReconcileGoalTasks repairs every goal's back-reference list against Task.GoalID.
// Valid entries keep their order; stale, duplicate and foreign ids are dropped and
// missing ids are appended in task collection order.
func (d *Document) ReconcileGoalTasks() {
	owner := make(map[string]string, len(d.Tasks))
	for _, t := range d.Tasks {
		owner[t.ID] = t.GoalRef()
	}
	index := make(map[string]int, len(d.Goals))
	for i := range d.Goals {
		g := &d.Goals[i]
		index[g.ID] = i
		kept := make([]string, 0, len(g.Tasks))
		seen := make(map[string]bool, len(g.Tasks))
		for _, id := range g.Tasks {
			if owner[id] == g.ID && !seen[id] {
				kept = append(kept, id)
				seen[id] = true
			}
		}
		g.Tasks = kept
	}
	for _, t := range d.Tasks {
		if i, ok := index[t.GoalRef()]; ok {
			d.Goals[i].AddTask(t.ID)
		}
	}
}
