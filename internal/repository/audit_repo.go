package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/model"
)

type AuditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

type auditRow struct {
	ID            string    `db:"id"`
	Action        string    `db:"action"`
	OccurredAt    time.Time `db:"occurred_at"`
	ActorUserID   string    `db:"actor_user_id"`
	ActorUsername string    `db:"actor_username"`
	ActorRole     string    `db:"actor_role"`
	ActorIP       string    `db:"actor_ip"`
	Status        string    `db:"status"`
	Resource      string    `db:"resource"`
	BeforeData    *string   `db:"before_data"`
	AfterData     *string   `db:"after_data"`
	ErrorText     string    `db:"error_text"`
}

func marshalOptional(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	beforeJSON, err := marshalOptional(entry.Before)
	if err != nil {
		return fmt.Errorf("marshal before data: %w", err)
	}
	afterJSON, err := marshalOptional(entry.After)
	if err != nil {
		return fmt.Errorf("marshal after data: %w", err)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	occurredAt := time.Now().UTC()
	if entry.OccurredAt != "" {
		if t, parseErr := time.Parse(time.RFC3339Nano, entry.OccurredAt); parseErr == nil {
			occurredAt = t.UTC()
		}
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO audit_entries
		 (id, action, occurred_at, actor_user_id, actor_username, actor_role, actor_ip,
		  status, resource, before_data, after_data, error_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		entry.ID, entry.Action, occurredAt,
		entry.Actor.UserID, entry.Actor.Username, entry.Actor.Role, entry.Actor.IP,
		entry.Status, entry.Resource, beforeJSON, afterJSON, entry.Error)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	where := make([]string, 0)
	args := make([]any, 0)

	if action := strings.TrimSpace(query.Action); action != "" {
		where = append(where, "lower(action) = lower(?)")
		args = append(args, action)
	}
	if actorID := strings.TrimSpace(query.ActorID); actorID != "" {
		where = append(where, "actor_user_id = ?")
		args = append(args, actorID)
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		where = append(where, "lower(status) = lower(?)")
		args = append(args, status)
	}
	if resource := strings.TrimSpace(query.Resource); resource != "" {
		where = append(where, "lower(resource) LIKE lower(?)")
		args = append(args, "%"+resource+"%")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	// Count total
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total,
		r.db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM audit_entries %s", whereClause)), args...); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit entries: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}
	meta := model.Meta{Page: query.Page, Limit: query.Limit, Total: total, TotalPages: totalPages}

	// Paginated query
	offset := (query.Page - 1) * query.Limit
	dataQuery := fmt.Sprintf(
		`SELECT id, action, occurred_at, actor_user_id, actor_username, actor_role, actor_ip,
		        status, resource, before_data, after_data, error_text
		 FROM audit_entries %s
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT ? OFFSET ?`, whereClause)
	args = append(args, query.Limit, offset)

	rows := make([]auditRow, 0, query.Limit)
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(dataQuery), args...); err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}

	entries := make([]model.AuditEntry, 0, len(rows))
	for _, row := range rows {
		e := model.AuditEntry{
			ID:         row.ID,
			Action:     row.Action,
			OccurredAt: row.OccurredAt.UTC().Format(time.RFC3339Nano),
			Actor: model.AuditActor{
				UserID:   row.ActorUserID,
				Username: row.ActorUsername,
				Role:     row.ActorRole,
				IP:       row.ActorIP,
			},
			Status:   row.Status,
			Resource: row.Resource,
			Error:    row.ErrorText,
		}

		if row.BeforeData != nil {
			var before any
			if jsonErr := json.Unmarshal([]byte(*row.BeforeData), &before); jsonErr == nil {
				e.Before = before
			}
		}
		if row.AfterData != nil {
			var after any
			if jsonErr := json.Unmarshal([]byte(*row.AfterData), &after); jsonErr == nil {
				e.After = after
			}
		}

		entries = append(entries, e)
	}

	return entries, meta, nil
}
