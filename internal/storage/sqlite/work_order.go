package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"mebel-mes/internal/storage"
)

func (s *Storage) SaveWorkOrder(ctx context.Context, wo storage.WorkOrder) error {
	const op = "storage.sqlite.SaveWorkOrder"

	payload, err := json.Marshal(wo)
	if err != nil {
		return fmt.Errorf("%s: ошибка сериализации партии: %w", op, err)
	}

	stmt := `
		INSERT INTO mes_work_orders (id, project_id, name, stage, status, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			name = excluded.name,
			stage = excluded.stage,
			status = excluded.status,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, stmt,
		wo.ID, wo.ProjectID, wo.Name, string(wo.Stage), string(wo.Status),
		string(payload), wo.CreatedAt.UnixMilli(), wo.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%s: id=%s: %w", op, wo.ID, err)
	}

	return nil
}

// GetAllWorkOrders в порядке создания. Upsert не меняет rowid, при равном времени порядок вставки
func (s *Storage) GetAllWorkOrders(ctx context.Context) ([]storage.WorkOrder, error) {
	const op = "storage.sqlite.GetAllWorkOrders"

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM mes_work_orders ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []storage.WorkOrder
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}

		var wo storage.WorkOrder
		if err := json.Unmarshal([]byte(payload), &wo); err != nil {
			return nil, fmt.Errorf("%s: ошибка парсинга JSON партии: %w", op, err)
		}
		orders = append(orders, wo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return orders, nil
}
