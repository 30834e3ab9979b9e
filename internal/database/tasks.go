package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rfaulk/flicklist/internal/models"
)

// ErrTaskNotFound is returned when an operation references a task id that is
// not in the store.
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, title, description, due_date, completed, completed_at, tags, priority, created_at, task_list, reminder_text, recommended_time, reasoning, confidence`

// Create persists a new task. The write is transactional: either the full
// record lands or none of it does.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	tagsJSON, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	var taskListJSON sql.NullString
	if task.TaskList != nil {
		b, err := json.Marshal(task.TaskList)
		if err != nil {
			return fmt.Errorf("marshal task list: %w", err)
		}
		taskListJSON = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID.String(),
		task.Title,
		nullString(task.Description),
		formatTime(task.DueDate),
		boolToInt(task.Completed),
		nullTime(task.CompletedAt),
		string(tagsJSON),
		nullPriority(task.Priority),
		formatTime(task.CreatedAt),
		taskListJSON,
		nullString(task.ReminderText),
		timingColumn(task.Timing, func(tr *models.TimingRecommendation) string { return tr.RecommendedTime }),
		timingColumn(task.Timing, func(tr *models.TimingRecommendation) string { return tr.Reasoning }),
		timingConfidence(task.Timing),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// GetByID retrieves a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id.String())

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// List retrieves all tasks, optionally filtered by completion state and tag.
// Results are ordered by creation time, newest first.
func (r *TaskRepository) List(ctx context.Context, completed *bool, tag *string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any

	if completed != nil {
		query += ` WHERE completed = ?`
		args = append(args, boolToInt(*completed))
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if tag != nil && !hasTag(task, *tag) {
			continue
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// Update replaces the mutable fields of an existing task.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	tagsJSON, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	var taskListJSON sql.NullString
	if task.TaskList != nil {
		b, err := json.Marshal(task.TaskList)
		if err != nil {
			return fmt.Errorf("marshal task list: %w", err)
		}
		taskListJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, due_date = ?, completed = ?, completed_at = ?,
			tags = ?, priority = ?, task_list = ?, reminder_text = ?,
			recommended_time = ?, reasoning = ?, confidence = ?
		WHERE id = ?`,
		task.Title,
		nullString(task.Description),
		formatTime(task.DueDate),
		boolToInt(task.Completed),
		nullTime(task.CompletedAt),
		string(tagsJSON),
		nullPriority(task.Priority),
		taskListJSON,
		nullString(task.ReminderText),
		timingColumn(task.Timing, func(tr *models.TimingRecommendation) string { return tr.RecommendedTime }),
		timingColumn(task.Timing, func(tr *models.TimingRecommendation) string { return tr.Reasoning }),
		timingConfidence(task.Timing),
		task.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return checkAffected(res)
}

// ApplyEnrichment patches the AI-generated fields onto an existing task
// without touching user-owned fields.
func (r *TaskRepository) ApplyEnrichment(ctx context.Context, id uuid.UUID, e *models.Enrichment) error {
	var taskListJSON sql.NullString
	if e.TaskList != nil {
		b, err := json.Marshal(e.TaskList)
		if err != nil {
			return fmt.Errorf("marshal task list: %w", err)
		}
		taskListJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET
			reminder_text = ?, task_list = ?, recommended_time = ?, reasoning = ?, confidence = ?
		WHERE id = ?`,
		nullString(e.ReminderText),
		taskListJSON,
		timingColumn(e.Timing, func(tr *models.TimingRecommendation) string { return tr.RecommendedTime }),
		timingColumn(e.Timing, func(tr *models.TimingRecommendation) string { return tr.Reasoning }),
		timingConfidence(e.Timing),
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("apply enrichment: %w", err)
	}
	return checkAffected(res)
}

// Complete marks a task completed, setting completed_at exactly once. Calling
// it on an already-completed task is a no-op that preserves the original
// completion timestamp.
func (r *TaskRepository) Complete(ctx context.Context, id uuid.UUID, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var completed int
	err = tx.QueryRowContext(ctx, `SELECT completed FROM tasks WHERE id = ?`, id.String()).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("read completion state: %w", err)
	}

	if completed == 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE tasks SET completed = 1, completed_at = ? WHERE id = ?`,
			formatTime(now.UTC()), id.String())
		if err != nil {
			return fmt.Errorf("complete task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit completion: %w", err)
	}
	return nil
}

// Delete deletes a task by ID.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return checkAffected(res)
}

// DeleteExpired removes uncompleted tasks created at or before cutoff and
// returns the ids of the removed rows so pending alerts can be cancelled.
func (r *TaskRepository) DeleteExpired(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM tasks WHERE completed = 0 AND created_at <= ?`,
		formatTime(cutoff.UTC()))
	if err != nil {
		return nil, fmt.Errorf("query expired tasks: %w", err)
	}

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan expired id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse expired id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired ids: %w", err)
	}

	if len(ids) > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM tasks WHERE completed = 0 AND created_at <= ?`,
			formatTime(cutoff.UTC()))
		if err != nil {
			return nil, fmt.Errorf("delete expired tasks: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit expiry sweep: %w", err)
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		task            models.Task
		idRaw           string
		description     sql.NullString
		dueDateRaw      string
		completed       int
		completedAtRaw  sql.NullString
		tagsJSON        string
		priorityRaw     sql.NullString
		createdAtRaw    string
		taskListJSON    sql.NullString
		reminderText    sql.NullString
		recommendedTime sql.NullString
		reasoning       sql.NullString
		confidence      sql.NullFloat64
	)

	err := row.Scan(&idRaw, &task.Title, &description, &dueDateRaw, &completed,
		&completedAtRaw, &tagsJSON, &priorityRaw, &createdAtRaw, &taskListJSON,
		&reminderText, &recommendedTime, &reasoning, &confidence)
	if err != nil {
		return nil, err
	}

	task.ID, err = uuid.Parse(idRaw)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	task.DueDate, err = parseTime(dueDateRaw)
	if err != nil {
		return nil, fmt.Errorf("parse due_date: %w", err)
	}
	task.CreatedAt, err = parseTime(createdAtRaw)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	task.Completed = completed != 0
	if completedAtRaw.Valid {
		t, err := parseTime(completedAtRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		task.CompletedAt = &t
	}

	if err := json.Unmarshal([]byte(tagsJSON), &task.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if taskListJSON.Valid {
		if err := json.Unmarshal([]byte(taskListJSON.String), &task.TaskList); err != nil {
			return nil, fmt.Errorf("unmarshal task list: %w", err)
		}
	}

	task.Description = description.String
	task.ReminderText = reminderText.String
	if priorityRaw.Valid {
		p := models.Priority(priorityRaw.String)
		task.Priority = &p
	}
	if recommendedTime.Valid {
		task.Timing = &models.TimingRecommendation{
			RecommendedTime: recommendedTime.String,
			Reasoning:       reasoning.String,
			Confidence:      confidence.Float64,
		}
	}

	return &task, nil
}

func hasTag(task *models.Task, tag string) bool {
	for _, t := range task.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Timestamps are stored as UTC RFC 3339 text so rows survive restarts with
// their instants intact regardless of local zone.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullPriority(p *models.Priority) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*p), Valid: true}
}

func timingColumn(tr *models.TimingRecommendation, field func(*models.TimingRecommendation) string) sql.NullString {
	if tr == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: field(tr), Valid: true}
}

func timingConfidence(tr *models.TimingRecommendation) sql.NullFloat64 {
	if tr == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: tr.Confidence, Valid: true}
}
