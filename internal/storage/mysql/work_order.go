package mysql

import (
	"context"
	"encoding/json"
	"fmt"

	"mebel-mes/internal/storage"
)

// SaveWorkOrder пишет снимок партии целиком, повторная запись перезаписывает строку
func (s *Storage) SaveWorkOrder(ctx context.Context, wo storage.WorkOrder) error {
	const op = "storage.mysql.SaveWorkOrder"

	payload, err := json.Marshal(wo)
	if err != nil {
		return fmt.Errorf("%s: ошибка сериализации партии: %w", op, err)
	}

	stmt := `
		INSERT INTO mes_work_orders (id, project_id, name, stage, status, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			project_id = VALUES(project_id),
			name = VALUES(name),
			stage = VALUES(stage),
			status = VALUES(status),
			payload = VALUES(payload),
			updated_at = VALUES(updated_at)
	`

	_, err = s.db.ExecContext(ctx, stmt,
		wo.ID, wo.ProjectID, wo.Name, string(wo.Stage), string(wo.Status),
		string(payload), wo.CreatedAt.UTC(), wo.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("%s: id=%s: %w", op, wo.ID, err)
	}

	return nil
}

// GetAllWorkOrders в порядке создания, при равном времени по seq вставки
func (s *Storage) GetAllWorkOrders(ctx context.Context) ([]storage.WorkOrder, error) {
	const op = "storage.mysql.GetAllWorkOrders"

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM mes_work_orders ORDER BY created_at, seq`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []storage.WorkOrder
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}

		var wo storage.WorkOrder
		if err := json.Unmarshal(payload, &wo); err != nil {
			return nil, fmt.Errorf("%s: ошибка парсинга JSON партии: %w", op, err)
		}
		orders = append(orders, wo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return orders, nil
}
