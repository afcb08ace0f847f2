package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"mebel-mes/internal/storage"
)

func (s *Storage) SaveEvent(ctx context.Context, ev storage.Event) error {
	const op = "storage.mysql.SaveEvent"

	var meta sql.NullString
	if len(ev.Meta) > 0 {
		b, err := json.Marshal(ev.Meta)
		if err != nil {
			return fmt.Errorf("%s: ошибка сериализации meta: %w", op, err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mes_events (ts, actor, action, meta) VALUES (?, ?, ?, ?)`,
		ev.Timestamp.UTC(), ev.Actor, ev.Action, meta,
	)
	if err != nil {
		return fmt.Errorf("%s: action=%s: %w", op, ev.Action, err)
	}

	return nil
}

// GetRecentEvents новые первыми
func (s *Storage) GetRecentEvents(ctx context.Context, limit int) ([]storage.Event, error) {
	const op = "storage.mysql.GetRecentEvents"

	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, actor, action, meta FROM mes_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	events := make([]storage.Event, 0, limit)
	for rows.Next() {
		var (
			ev   storage.Event
			meta sql.NullString
		)
		if err := rows.Scan(&ev.Timestamp, &ev.Actor, &ev.Action, &meta); err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &ev.Meta); err != nil {
				return nil, fmt.Errorf("%s: ошибка парсинга JSON meta: %w", op, err)
			}
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}
