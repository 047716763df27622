// Package planner owns the goal and task collections. Every mutation keeps the
// goal back-reference lists consistent with Task.GoalID and is saved before the
// write lock is released.
package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
	"github.com/Hamza-235/Smart-study-Planner/internal/persistence"
)

// Saver persists the whole document. *persistence.Adapter satisfies it.
type Saver interface {
	Save(ctx context.Context, doc *models.Document) error
}

// Replacer is a Saver that can also overwrite storage it refuses ordinary saves
// to. Import uses it when available. *persistence.Adapter satisfies it.
type Replacer interface {
	Replace(ctx context.Context, doc *models.Document) error
}

type Options struct {
	Saver  Saver
	Logger logrus.FieldLogger
	Clock  func() time.Time
	IDs    IDGenerator
}

type Store struct {
	mu     sync.RWMutex
	doc    *models.Document
	saver  Saver
	logger logrus.FieldLogger
	now    func() time.Time
	ids    IDGenerator
}

// NewStore takes ownership of doc. A nil doc starts an empty planner.
func NewStore(doc *models.Document, opts Options) *Store {
	if doc == nil {
		doc = models.NewDocument()
	}
	doc.Normalize()
	doc.ReconcileGoalTasks()

	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.IDs == nil {
		opts.IDs = UUIDGenerator{}
	}

	return &Store{
		doc:    doc,
		saver:  opts.Saver,
		logger: opts.Logger.WithField("component", "planner"),
		now:    opts.Clock,
		ids:    opts.IDs,
	}
}

// persist must be called with the write lock held.
func (s *Store) persist(ctx context.Context, op string) error {
	if s.saver == nil {
		return nil
	}
	return s.checkSaved(op, s.saver.Save(ctx, s.doc))
}

func (s *Store) checkSaved(op string, err error) error {
	if err != nil {
		s.logger.WithError(err).WithField("op", op).Warn("planner change kept in memory but not saved")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *Store) newID(prefix string) (string, error) {
	for attempt := 0; attempt < 8; attempt++ {
		id, err := s.ids.NewID(prefix)
		if err != nil {
			return "", err
		}
		if s.goalIndex(id) < 0 && s.taskIndex(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique %s id", prefix)
}

func (s *Store) goalIndex(id string) int {
	for i := range s.doc.Goals {
		if s.doc.Goals[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) taskIndex(id string) int {
	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListGoals() []models.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Goal, len(s.doc.Goals))
	for i, g := range s.doc.Goals {
		out[i] = g.Clone()
	}
	return out
}

// GetGoal returns nil when id is unknown.
func (s *Store) GetGoal(id string) *models.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.goalIndex(id)
	if i < 0 {
		return nil
	}
	g := s.doc.Goals[i].Clone()
	return &g
}

func (s *Store) CreateGoal(ctx context.Context, in GoalInput) (*models.Goal, error) {
	goal, err := in.build()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	goal.ID, err = s.newID(goalPrefix)
	if err != nil {
		return nil, err
	}
	now := s.now()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	s.doc.Goals = append(s.doc.Goals, goal)

	out := goal.Clone()
	return &out, s.persist(ctx, "create_goal")
}

// UpdateGoal returns nil, nil when id is unknown.
func (s *Store) UpdateGoal(ctx context.Context, id string, patch GoalPatch) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.goalIndex(id)
	if i < 0 {
		return nil, nil
	}
	updated, err := patch.apply(s.doc.Goals[i])
	if err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()
	s.doc.Goals[i] = updated

	out := updated.Clone()
	return &out, s.persist(ctx, "update_goal")
}

// DeleteGoal removes the goal's tasks, then the goal, and saves once.
func (s *Store) DeleteGoal(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.goalIndex(id)
	if i < 0 {
		return false, nil
	}

	kept := make([]models.Task, 0, len(s.doc.Tasks))
	for _, t := range s.doc.Tasks {
		if !t.BelongsTo(id) {
			kept = append(kept, t)
		}
	}
	removed := len(s.doc.Tasks) - len(kept)
	s.doc.Tasks = kept
	s.doc.Goals = append(s.doc.Goals[:i], s.doc.Goals[i+1:]...)

	s.logger.WithFields(logrus.Fields{"goal_id": id, "tasks_removed": removed}).Debug("goal deleted")
	return true, s.persist(ctx, "delete_goal")
}

func (s *Store) ListTasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterTasks(func(*models.Task) bool { return true })
}

func (s *Store) GetTask(id string) *models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.taskIndex(id)
	if i < 0 {
		return nil
	}
	t := s.doc.Tasks[i].Clone()
	return &t
}

// ListTasksByGoal scans tasks in collection order.
func (s *Store) ListTasksByGoal(goalID string) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterTasks(func(t *models.Task) bool { return t.BelongsTo(goalID) })
}

// filterTasks must be called with a lock held.
func (s *Store) filterTasks(keep func(*models.Task) bool) []models.Task {
	out := make([]models.Task, 0)
	for i := range s.doc.Tasks {
		if keep(&s.doc.Tasks[i]) {
			out = append(out, s.doc.Tasks[i].Clone())
		}
	}
	return out
}

func (s *Store) CreateTask(ctx context.Context, in TaskInput) (*models.Task, error) {
	task, err := in.build()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID, err = s.newID(taskPrefix)
	if err != nil {
		return nil, err
	}
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.doc.Tasks = append(s.doc.Tasks, task)
	if gi := s.goalIndex(task.GoalRef()); gi >= 0 {
		s.doc.Goals[gi].AddTask(task.ID)
	}

	out := task.Clone()
	return &out, s.persist(ctx, "create_task")
}

// UpdateTask returns nil, nil when id is unknown. A goalId change moves the task
// between back-reference lists.
func (s *Store) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return nil, nil
	}
	oldGoal := s.doc.Tasks[i].GoalRef()
	updated, err := patch.apply(s.doc.Tasks[i])
	if err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()
	s.doc.Tasks[i] = updated

	if newGoal := updated.GoalRef(); newGoal != oldGoal {
		if gi := s.goalIndex(oldGoal); gi >= 0 {
			s.doc.Goals[gi].RemoveTask(id)
		}
		if gi := s.goalIndex(newGoal); gi >= 0 {
			s.doc.Goals[gi].AddTask(id)
		}
	}

	out := updated.Clone()
	return &out, s.persist(ctx, "update_task")
}

func (s *Store) DeleteTask(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return false, nil
	}
	if gi := s.goalIndex(s.doc.Tasks[i].GoalRef()); gi >= 0 {
		s.doc.Goals[gi].RemoveTask(id)
	}
	s.doc.Tasks = append(s.doc.Tasks[:i], s.doc.Tasks[i+1:]...)

	return true, s.persist(ctx, "delete_task")
}

func (s *Store) ToggleCompletion(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return nil, nil
	}
	t := &s.doc.Tasks[i]
	t.Completed = !t.Completed
	t.UpdatedAt = s.now()

	out := t.Clone()
	return &out, s.persist(ctx, "toggle_task")
}

func (s *Store) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Settings
}

func (s *Store) UpdateSettings(ctx context.Context, patch SettingsPatch) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.NotificationsAllowed != nil {
		s.doc.Settings.NotificationsAllowed = *patch.NotificationsAllowed
	}
	return s.doc.Settings, s.persist(ctx, "update_settings")
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return persistence.Export(s.doc)
}

// Import replaces the whole document. An invalid payload changes nothing and
// returns an error wrapping persistence.ErrInvalidDocument.
func (s *Store) Import(ctx context.Context, data []byte) error {
	doc, err := persistence.Import(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = doc
	s.logger.WithFields(logrus.Fields{
		"goals": len(doc.Goals),
		"tasks": len(doc.Tasks),
	}).Info("planner data imported")

	if r, ok := s.saver.(Replacer); ok {
		return s.checkSaved("import", r.Replace(ctx, s.doc))
	}
	return s.persist(ctx, "import")
}
