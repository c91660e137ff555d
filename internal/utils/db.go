package utils

import (
	"database/sql"

	"vote-recon/internal/config"
	"vote-recon/internal/logger"

	_ "github.com/lib/pq"
)

// OpenPostgres：按配置打开连接池；sql.Open 不建立连接，可达性由调用方 Ping 确认
func OpenPostgres(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	logger.L().Debug("pg_env", "host", cfg.Postgres.Host, "db", cfg.Postgres.DB, "max_open", cfg.Postgres.MaxOpenConns)
	return db, nil
}
