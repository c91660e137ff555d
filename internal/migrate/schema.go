package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"vote-recon/internal/logger"
)

// 背景：首次运行自动创建频道与候选者快照表，保障快照写入与读取
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构；对账结果不落库
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS _vr_channels (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL DEFAULT '',
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS _vr_candidates (
        channel_id TEXT NOT NULL REFERENCES _vr_channels(id) ON DELETE CASCADE,
        id TEXT NOT NULL,
        name TEXT NOT NULL DEFAULT '',
        city TEXT NOT NULL DEFAULT '',
        province TEXT NOT NULL DEFAULT '',
        country TEXT NOT NULL DEFAULT '',
        region TEXT NOT NULL DEFAULT '',
        country_code TEXT NOT NULL DEFAULT '',
        lat DOUBLE PRECISION,
        lng DOUBLE PRECISION,
        votes BIGINT,
        has_components BOOLEAN NOT NULL DEFAULT FALSE,
        test_votes BIGINT,
        real_votes BIGINT,
        bonus_votes BIGINT,
        vote_count BIGINT,
        key_gps TEXT NOT NULL DEFAULT '',
        key_city TEXT NOT NULL DEFAULT '',
        key_province TEXT NOT NULL DEFAULT '',
        key_country TEXT NOT NULL DEFAULT '',
        key_region TEXT NOT NULL DEFAULT '',
        key_global TEXT NOT NULL DEFAULT '',
        PRIMARY KEY (channel_id, id)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_vr_candidates_channel ON _vr_candidates(channel_id)`,
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema stmt %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
