package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"mebel-mes/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS mes_work_orders (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	seq BIGINT NOT NULL AUTO_INCREMENT,
	project_id VARCHAR(128) NOT NULL DEFAULT '',
	name VARCHAR(255) NOT NULL DEFAULT '',
	stage VARCHAR(32) NOT NULL,
	status VARCHAR(32) NOT NULL,
	payload JSON NOT NULL,
	created_at DATETIME(3) NOT NULL,
	updated_at DATETIME(3) NOT NULL,
	UNIQUE KEY uq_mes_work_orders_seq (seq),
	INDEX idx_mes_work_orders_stage (stage)
);

CREATE TABLE IF NOT EXISTS mes_events (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	ts DATETIME(3) NOT NULL,
	actor VARCHAR(128) NOT NULL DEFAULT '',
	action VARCHAR(64) NOT NULL,
	meta JSON NULL,
	INDEX idx_mes_events_ts (ts)
);
`

type Storage struct {
	db *sql.DB
}

func DSN(cfg config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=%v&multiStatements=true",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.ParseTime,
	)
}

func New(cfg config.Config) (*Storage, error) {
	const op = "storage.mysql.New"

	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open db: %w", op, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1049 {
			return nil, fmt.Errorf("%s: база %q не существует: %w", op, cfg.DBName, err)
		}
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.mysql.Migrate"

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
