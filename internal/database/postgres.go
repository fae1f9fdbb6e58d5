package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// Agenda Repository Implementation

func (db *PostgresDB) ListAgendaItems(ctx context.Context, meetingID string) ([]*models.AgendaItem, error) {
	query := `
		SELECT id, meeting_id, agenda_item, duration_seconds, order_index,
		       status = 'processed', processed_at, created_at
		FROM agenda_items
		WHERE meeting_id = $1
		ORDER BY order_index ASC NULLS LAST, created_at ASC NULLS LAST, id ASC`

	rows, err := db.pool.Query(ctx, query, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.AgendaItem
	for rows.Next() {
		item := &models.AgendaItem{}
		if err := rows.Scan(
			&item.ID, &item.MeetingID, &item.Text, &item.TimerValue,
			&item.OrderIndex, &item.IsProcessed, &item.ProcessedAt, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (db *PostgresDB) CreateAgendaItem(ctx context.Context, item *models.AgendaItem) (*models.AgendaItem, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	// order_index continues the per-meeting sequence.
	query := `
		INSERT INTO agenda_items (id, meeting_id, agenda_item, duration_seconds, order_index, status, created_at)
		VALUES ($1, $2, $3, $4,
			COALESCE((SELECT MAX(order_index) + 1 FROM agenda_items WHERE meeting_id = $2), 0),
			'pending', NOW())
		RETURNING id, meeting_id, agenda_item, duration_seconds, order_index, created_at`

	created := &models.AgendaItem{}
	err := db.pool.QueryRow(ctx, query, item.ID, item.MeetingID, item.Text, item.TimerValue).Scan(
		&created.ID, &created.MeetingID, &created.Text, &created.TimerValue,
		&created.OrderIndex, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agenda item: %w", err)
	}

	return created, nil
}

func (db *PostgresDB) UpdateAgendaItem(ctx context.Context, req *models.UpdateAgendaItemRequest) error {
	query := `UPDATE agenda_items SET agenda_item = $1, duration_seconds = $2 WHERE id = $3`

	tag, err := db.pool.Exec(ctx, query, req.Text, req.TimerValue, req.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) DeleteAgendaItem(ctx context.Context, meetingID, itemID string) error {
	query := `DELETE FROM agenda_items WHERE meeting_id = $1 AND id = $2`

	tag, err := db.pool.Exec(ctx, query, meetingID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) SetItemsProcessed(ctx context.Context, meetingID string, itemIDs []string, processed bool, processedAt *time.Time) error {
	if len(itemIDs) == 0 {
		return nil
	}

	status := "pending"
	if processed {
		status = "processed"
	}

	query := `
		UPDATE agenda_items SET status = $1, processed_at = $2
		WHERE meeting_id = $3 AND id = ANY($4)`

	_, err := db.pool.Exec(ctx, query, status, processedAt, meetingID, itemIDs)
	return err
}

// Meeting Repository Implementation

func (db *PostgresDB) CreateMeeting(ctx context.Context, meeting *models.Meeting) (*models.Meeting, error) {
	if meeting.ID == "" {
		meeting.ID = uuid.New().String()
	}

	query := `
		INSERT INTO meetings (id, zoom_meeting_id, topic, start_time, duration, join_url, host_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, zoom_meeting_id, topic, start_time, duration, join_url, host_id, created_at`

	created := &models.Meeting{}
	err := db.pool.QueryRow(ctx, query,
		meeting.ID, meeting.ZoomID, meeting.Topic, meeting.StartTime,
		meeting.Duration, meeting.JoinURL, meeting.HostID,
	).Scan(
		&created.ID, &created.ZoomID, &created.Topic, &created.StartTime,
		&created.Duration, &created.JoinURL, &created.HostID, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	return created, nil
}

func (db *PostgresDB) GetMeetingByID(ctx context.Context, id string) (*models.Meeting, error) {
	query := `
		SELECT id, zoom_meeting_id, topic, start_time, duration, join_url, host_id, created_at
		FROM meetings WHERE id = $1`

	meeting := &models.Meeting{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&meeting.ID, &meeting.ZoomID, &meeting.Topic, &meeting.StartTime,
		&meeting.Duration, &meeting.JoinURL, &meeting.HostID, &meeting.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return meeting, nil
}

// Nudge Repository Implementation

func (db *PostgresDB) SaveNudge(ctx context.Context, nudge *models.Nudge) error {
	query := `
		INSERT INTO nudges (meeting_id, participant_id, nudge_type, message, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := db.pool.Exec(ctx, query,
		nudge.MeetingID, nudge.ParticipantID, nudge.Type, nudge.Message, nudge.Timestamp)
	return err
}

func (db *PostgresDB) CountNudges(ctx context.Context, meetingID string) (*models.NudgeCounts, error) {
	// Only nudges after the last reset watermark count.
	query := `
		SELECT
			COUNT(*) FILTER (WHERE nudge_type = 'move_along'),
			COUNT(*) FILTER (WHERE nudge_type = 'invite_speak')
		FROM nudges
		WHERE meeting_id = $1
		  AND created_at > COALESCE(
			(SELECT reset_at FROM nudge_resets WHERE meeting_id = $1), 'epoch'::timestamptz)`

	counts := &models.NudgeCounts{MeetingID: meetingID}
	err := db.pool.QueryRow(ctx, query, meetingID).Scan(&counts.MoveAlong, &counts.InviteSpeak)
	if err != nil {
		return nil, err
	}

	return counts, nil
}

func (db *PostgresDB) ResetNudges(ctx context.Context, meetingID string) error {
	query := `
		INSERT INTO nudge_resets (meeting_id, reset_at) VALUES ($1, NOW())
		ON CONFLICT (meeting_id) DO UPDATE SET reset_at = NOW()`

	_, err := db.pool.Exec(ctx, query, meetingID)
	return err
}
