// 包 store: 频道候选者快照的 PostgreSQL 访问层（对账引擎的输入协作方），不保存对账结果
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vote-recon/internal/logger"
	"vote-recon/internal/metrics"
	"vote-recon/internal/recon"
)

var ErrChannelNotFound = errors.New("channel not found")

// Store: 数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *sql.DB { return s.db }

const candidateColumns = `id, name, city, province, country, region, country_code, lat, lng,
        votes, has_components, test_votes, real_votes, bonus_votes, vote_count,
        key_gps, key_city, key_province, key_country, key_region, key_global`

// 文档注释：读取频道快照
// 背景：按 id 顺序返回候选者；坐标两列均为空时视为缺失位置，由引擎校验拒绝。
// 返回：频道不存在时返回 ErrChannelNotFound。
func (s *Store) LoadChannel(ctx context.Context, id string) (*recon.Channel, error) {
	t0 := time.Now()
	defer func() { metrics.StoreLoadDurationMs.Observe(float64(time.Since(t0).Milliseconds())) }()
	ch := &recon.Channel{ID: id}
	err := s.db.QueryRowContext(ctx, "SELECT name FROM _vr_channels WHERE id=$1", id).Scan(&ch.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load channel %s: %w", id, err)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+candidateColumns+" FROM _vr_candidates WHERE channel_id=$1 ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("load candidates %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		ch.Candidates = append(ch.Candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("store_channel_loaded", "channel", id, "candidates", len(ch.Candidates))
	return ch, nil
}

func scanCandidate(rows *sql.Rows) (recon.Candidate, error) {
	var c recon.Candidate
	var lat, lng sql.NullFloat64
	var votes, tv, rv, bv, legacy sql.NullInt64
	var hasComponents bool
	var k recon.ClusterKeys
	err := rows.Scan(&c.ID, &c.Name, &c.City, &c.Province, &c.Country, &c.Region, &c.CountryCode, &lat, &lng,
		&votes, &hasComponents, &tv, &rv, &bv, &legacy,
		&k.GPS, &k.City, &k.Province, &k.Country, &k.Region, &k.Global)
	if err != nil {
		return c, err
	}
	if lat.Valid || lng.Valid {
		c.Location = &recon.Location{Lat: lat.Float64, Lng: lng.Float64}
	}
	c.Votes = nullInt(votes)
	if hasComponents {
		c.VoteComponents = &recon.VoteComponents{TestVotes: nullInt(tv), RealVotes: nullInt(rv), BonusVotes: nullInt(bv)}
	}
	c.VoteCount = nullInt(legacy)
	c.ClusterKeys = &k
	return c, nil
}

// 文档注释：写入频道快照（整体替换）
// 背景：同一事务内更新频道并重写全部候选者，读取方不会看到半份快照。
// 约束：不做业务校验；非法数据在对账时被拒绝。
func (s *Store) SaveChannel(ctx context.Context, ch *recon.Channel) (err error) {
	if ch == nil || ch.ID == "" {
		return errors.New("channel id required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `INSERT INTO _vr_channels(id, name) VALUES($1,$2)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, updated_at=now()`, ch.ID, ch.Name); err != nil {
		return fmt.Errorf("upsert channel: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM _vr_candidates WHERE channel_id=$1", ch.ID); err != nil {
		return fmt.Errorf("clear candidates: %w", err)
	}
	for i := range ch.Candidates {
		c := &ch.Candidates[i]
		var lat, lng sql.NullFloat64
		if c.Location != nil {
			lat = sql.NullFloat64{Float64: c.Location.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: c.Location.Lng, Valid: true}
		}
		var tv, rv, bv sql.NullInt64
		if vc := c.VoteComponents; vc != nil {
			tv, rv, bv = toNull(vc.TestVotes), toNull(vc.RealVotes), toNull(vc.BonusVotes)
		}
		var k recon.ClusterKeys
		if c.ClusterKeys != nil {
			k = *c.ClusterKeys
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO _vr_candidates(channel_id, `+candidateColumns+`)
            VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
			ch.ID, c.ID, c.Name, c.City, c.Province, c.Country, c.Region, c.CountryCode, lat, lng,
			toNull(c.Votes), c.VoteComponents != nil, tv, rv, bv, toNull(c.VoteCount),
			k.GPS, k.City, k.Province, k.Country, k.Region, k.Global,
		); err != nil {
			return fmt.Errorf("insert candidate %s: %w", c.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	logger.L().Debug("store_channel_saved", "channel", ch.ID, "candidates", len(ch.Candidates))
	return nil
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func toNull(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
