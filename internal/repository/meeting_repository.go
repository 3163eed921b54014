package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/meeting-service/internal/domain"
)

// MeetingFilter narrows meeting listings. Exactly one of HostID or
// ParticipantID is expected.
type MeetingFilter struct {
	HostID        *string
	ParticipantID *string
	Status        *domain.MeetingStatus
	From          *time.Time
	ExcludeStatus []domain.MeetingStatus
}

// MeetingRepository encapsulates meeting persistence. Participants and action
// items are loaded with the meeting.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	Update(ctx context.Context, meeting *domain.Meeting) error
	GetByID(ctx context.Context, id string) (*domain.Meeting, error)
	GetByExternalID(ctx context.Context, externalID, viewerID string) (*domain.Meeting, error)
	List(ctx context.Context, filter MeetingFilter) ([]domain.Meeting, error)

	SetEmailSent(ctx context.Context, id string) error
	SetTranscriptionBot(ctx context.Context, id string, botID *string, started bool) error
	SaveTranscript(ctx context.Context, id string, segments []domain.TranscriptSegment) error

	ReplaceActionItems(ctx context.Context, meetingID string, items []domain.ActionItem) error
	UpdateActionItemStatus(ctx context.Context, meetingID, itemID string, status domain.ActionItemStatus) error
	ListOpenActionItemsByAssignee(ctx context.Context, userID string) ([]domain.AssignedActionItem, error)
}

type meetingRepository struct {
	pool *pgxpool.Pool
}

// NewMeetingRepository instantiates repository.
func NewMeetingRepository(pool *pgxpool.Pool) MeetingRepository {
	return &meetingRepository{pool: pool}
}

const meetingColumns = `id, external_id, title, description, host_id, meeting_link, scheduled_at,
        duration_minutes, timezone, status, actual_start_time, actual_end_time, notes, is_recurring,
        recurring_pattern, email_sent, transcript, transcription_bot_id, transcription_bot_started,
        created_at, updated_at`

func (r *meetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	const query = `
        INSERT INTO meetings (external_id, title, description, host_id, meeting_link, scheduled_at,
            duration_minutes, timezone, status, notes, is_recurring, recurring_pattern, transcript)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		transcript := meeting.Transcript
		if transcript == nil {
			transcript = []domain.TranscriptSegment{}
		}
		if err := tx.QueryRow(ctx, query,
			meeting.ExternalID,
			meeting.Title,
			meeting.Description,
			meeting.HostID,
			meeting.MeetingLink,
			meeting.ScheduledAt,
			meeting.DurationMinutes,
			meeting.Timezone,
			meeting.Status,
			meeting.Notes,
			meeting.IsRecurring,
			meeting.RecurringPattern,
			transcript,
		).Scan(&meeting.ID, &meeting.CreatedAt, &meeting.UpdatedAt); err != nil {
			return fmt.Errorf("insert meeting: %w", err)
		}
		return insertParticipants(ctx, tx, meeting.ID, meeting.Participants)
	})
}

// Update writes scalar fields and replaces the participant roster in one transaction.
func (r *meetingRepository) Update(ctx context.Context, meeting *domain.Meeting) error {
	const query = `
        UPDATE meetings SET external_id=$1, title=$2, description=$3, meeting_link=$4, scheduled_at=$5,
            duration_minutes=$6, timezone=$7, status=$8, actual_start_time=$9, actual_end_time=$10,
            notes=$11, is_recurring=$12, recurring_pattern=$13, updated_at=NOW()
        WHERE id=$14
        RETURNING updated_at`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			meeting.ExternalID,
			meeting.Title,
			meeting.Description,
			meeting.MeetingLink,
			meeting.ScheduledAt,
			meeting.DurationMinutes,
			meeting.Timezone,
			meeting.Status,
			meeting.ActualStartTime,
			meeting.ActualEndTime,
			meeting.Notes,
			meeting.IsRecurring,
			meeting.RecurringPattern,
			meeting.ID,
		).Scan(&meeting.UpdatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM meeting_participants WHERE meeting_id=$1`, meeting.ID); err != nil {
			return fmt.Errorf("clear participants: %w", err)
		}
		return insertParticipants(ctx, tx, meeting.ID, meeting.Participants)
	})
}

func insertParticipants(ctx context.Context, tx pgx.Tx, meetingID string, participants []domain.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	const query = `
        INSERT INTO meeting_participants (meeting_id, user_id, position, status, joined_at, left_at)
        VALUES ($1,$2,$3,$4,$5,$6)`

	batch := &pgx.Batch{}
	for i, p := range participants {
		batch.Queue(query, meetingID, p.UserID, i, p.Status, p.JoinedAt, p.LeftAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert participants: %w", err)
	}
	return nil
}

func (r *meetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

// GetByExternalID returns the meeting with the slug. Join links get reused, so
// the newest meeting viewerID hosts or attends wins over newer foreign ones.
func (r *meetingRepository) GetByExternalID(ctx context.Context, externalID, viewerID string) (*domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + `
        FROM meetings m
        WHERE m.external_id=$1
        ORDER BY (m.host_id::text = $2 OR EXISTS (
                SELECT 1 FROM meeting_participants p
                WHERE p.meeting_id = m.id AND p.user_id::text = $2)) DESC,
            m.created_at DESC
        LIMIT 1`
	return r.fetchSingle(ctx, query, externalID, viewerID)
}

func (r *meetingRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Meeting, error) {
	meeting, err := scanMeeting(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	meetings := []domain.Meeting{*meeting}
	if err := r.loadChildren(ctx, meetings); err != nil {
		return nil, err
	}
	return &meetings[0], nil
}

func (r *meetingRepository) List(ctx context.Context, filter MeetingFilter) ([]domain.Meeting, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.HostID != nil {
		args = append(args, *filter.HostID)
		clauses = append(clauses, fmt.Sprintf("host_id=$%d", len(args)))
	}
	if filter.ParticipantID != nil {
		args = append(args, *filter.ParticipantID)
		clauses = append(clauses, fmt.Sprintf(
			"id IN (SELECT meeting_id FROM meeting_participants WHERE user_id=$%d)", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if len(filter.ExcludeStatus) > 0 {
		placeholders := make([]string, len(filter.ExcludeStatus))
		for i, status := range filter.ExcludeStatus {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status NOT IN (%s)", strings.Join(placeholders, ",")))
	}

	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY scheduled_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []domain.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, *meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// loadChildren fills participants and action items for meetings in place.
func (r *meetingRepository) loadChildren(ctx context.Context, meetings []domain.Meeting) error {
	if len(meetings) == 0 {
		return nil
	}
	ids := make([]string, len(meetings))
	index := make(map[string]int, len(meetings))
	for i, m := range meetings {
		ids[i] = m.ID
		index[m.ID] = i
	}

	rows, err := r.pool.Query(ctx, `
        SELECT meeting_id, user_id, status, joined_at, left_at
        FROM meeting_participants
        WHERE meeting_id::text = ANY($1)
        ORDER BY meeting_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	for rows.Next() {
		var meetingID string
		var p domain.Participant
		if err := rows.Scan(&meetingID, &p.UserID, &p.Status, &p.JoinedAt, &p.LeftAt); err != nil {
			rows.Close()
			return err
		}
		i := index[meetingID]
		meetings[i].Participants = append(meetings[i].Participants, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `
        SELECT id, meeting_id, assignee_id, assignee_name, task, due_date, status, created_at, updated_at
        FROM meeting_action_items
        WHERE meeting_id::text = ANY($1)
        ORDER BY meeting_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load action items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanActionItem(rows)
		if err != nil {
			return err
		}
		i := index[item.MeetingID]
		meetings[i].ActionItems = append(meetings[i].ActionItems, *item)
	}
	return rows.Err()
}

func (r *meetingRepository) SetEmailSent(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE meetings SET email_sent=TRUE, updated_at=NOW() WHERE id=$1`, id)
}

func (r *meetingRepository) SetTranscriptionBot(ctx context.Context, id string, botID *string, started bool) error {
	return r.execOne(ctx, `
        UPDATE meetings SET transcription_bot_id=COALESCE($1, transcription_bot_id),
            transcription_bot_started=$2, updated_at=NOW()
        WHERE id=$3`, botID, started, id)
}

func (r *meetingRepository) SaveTranscript(ctx context.Context, id string, segments []domain.TranscriptSegment) error {
	if segments == nil {
		segments = []domain.TranscriptSegment{}
	}
	return r.execOne(ctx, `UPDATE meetings SET transcript=$1, updated_at=NOW() WHERE id=$2`, segments, id)
}

// ReplaceActionItems swaps the meeting's items atomically.
func (r *meetingRepository) ReplaceActionItems(ctx context.Context, meetingID string, items []domain.ActionItem) error {
	const insert = `
        INSERT INTO meeting_action_items (id, meeting_id, position, assignee_id, assignee_name, task, due_date, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM meeting_action_items WHERE meeting_id=$1`, meetingID); err != nil {
			return fmt.Errorf("clear action items: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for i, item := range items {
			batch.Queue(insert, item.ID, meetingID, i, item.AssigneeID, item.AssigneeName, item.Task, item.DueDate, item.Status)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert action items: %w", err)
		}
		return nil
	})
}

func (r *meetingRepository) UpdateActionItemStatus(ctx context.Context, meetingID, itemID string, status domain.ActionItemStatus) error {
	return r.execOne(ctx, `
        UPDATE meeting_action_items SET status=$1, updated_at=NOW()
        WHERE meeting_id=$2 AND id=$3`, status, meetingID, itemID)
}

func (r *meetingRepository) ListOpenActionItemsByAssignee(ctx context.Context, userID string) ([]domain.AssignedActionItem, error) {
	const query = `
        SELECT a.id, a.meeting_id, a.assignee_id, a.assignee_name, a.task, a.due_date, a.status,
               a.created_at, a.updated_at, m.title, m.scheduled_at
        FROM meeting_action_items a
        JOIN meetings m ON m.id = a.meeting_id
        WHERE a.assignee_id=$1 AND a.status='open'
        ORDER BY m.scheduled_at DESC, a.position ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.AssignedActionItem
	for rows.Next() {
		var item domain.AssignedActionItem
		if err := rows.Scan(
			&item.ID,
			&item.MeetingID,
			&item.AssigneeID,
			&item.AssigneeName,
			&item.Task,
			&item.DueDate,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.MeetingTitle,
			&item.MeetingScheduledAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *meetingRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanMeeting(row pgx.Row) (*domain.Meeting, error) {
	var m domain.Meeting
	if err := row.Scan(
		&m.ID,
		&m.ExternalID,
		&m.Title,
		&m.Description,
		&m.HostID,
		&m.MeetingLink,
		&m.ScheduledAt,
		&m.DurationMinutes,
		&m.Timezone,
		&m.Status,
		&m.ActualStartTime,
		&m.ActualEndTime,
		&m.Notes,
		&m.IsRecurring,
		&m.RecurringPattern,
		&m.EmailSent,
		&m.Transcript,
		&m.TranscriptionBotID,
		&m.TranscriptionBotStarted,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanActionItem(row pgx.Row) (*domain.ActionItem, error) {
	var item domain.ActionItem
	if err := row.Scan(
		&item.ID,
		&item.MeetingID,
		&item.AssigneeID,
		&item.AssigneeName,
		&item.Task,
		&item.DueDate,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}
