package recon

import (
	"errors"
	"time"

	"vote-recon/internal/logger"
	"vote-recon/internal/metrics"

	"github.com/google/uuid"
)

// Recorder：成功对账后的审计钩子；实现需自行保证并发安全
type Recorder interface {
	Record(reconciliationID, channelID string, votes map[Level]*LevelResult, d time.Duration)
}

// 文档注释：对账引擎
// 背景：每次调用均为纯同步计算，除审计记录外不共享可变状态，可在多个 goroutine 中并行调用。
// 约束：状态机严格顺序执行：校验 → 构建 → 六层对账 → 守恒校验 → 审计；任一步失败整体中止，不写审计。
type Engine struct {
	recorder Recorder
	rule     GeographyRule
	now      func() time.Time
	newID    func() string
}

type Option func(*Engine)

func WithRecorder(r Recorder) Option { return func(e *Engine) { e.recorder = r } }

func WithGeographyRule(r GeographyRule) Option { return func(e *Engine) { e.rule = r } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithIDGenerator(f func() string) Option { return func(e *Engine) { e.newID = f } }

func NewEngine(opts ...Option) *Engine {
	e := &Engine{rule: RejectUnknown, now: time.Now, newID: func() string { return uuid.NewString() }}
	for _, o := range opts {
		o(e)
	}
	return e
}

// 文档注释：对一个频道快照执行全量对账
// 返回：通过守恒校验的结果（Integrity=PERFECT）；任何失败返回 *Error，不返回部分结果。
func (e *Engine) Reconcile(ch *Channel) (*Result, error) {
	start := e.now()
	res, err := e.reconcile(ch, start)
	if err != nil {
		outcome := "input_error"
		var re *Error
		if errors.As(err, &re) {
			if re.Kind.Internal() {
				outcome = "internal_error"
				logger.L().Error("reconcile_internal_error", "err", err)
			} else {
				metrics.ValidationFailuresTotal.WithLabelValues(string(re.Kind)).Inc()
				logger.L().Debug("reconcile_rejected", "err", err)
			}
		}
		metrics.ReconciliationsTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}
	res.ReconciliationTime = e.now().Sub(start)
	if e.recorder != nil {
		e.recorder.Record(res.ReconciliationID, res.ChannelID, res.ReconciledVotes, res.ReconciliationTime)
	}
	metrics.ReconciliationsTotal.WithLabelValues("ok").Inc()
	metrics.ReconcileDurationMs.Observe(float64(res.ReconciliationTime.Microseconds()) / 1000)
	metrics.CandidatesReconciledTotal.Add(float64(len(ch.Candidates)))
	logger.L().Info("reconcile_done",
		"id", res.ReconciliationID,
		"channel", res.ChannelID,
		"candidates", len(ch.Candidates),
		"votes", res.TotalVotes,
		"duration_ms", res.ReconciliationTime.Milliseconds(),
	)
	return res, nil
}

func (e *Engine) reconcile(ch *Channel, ts time.Time) (*Result, error) {
	if err := ValidateChannel(ch, e.rule); err != nil {
		return nil, err
	}
	logger.L().Debug("reconcile_begin", "channel", ch.ID, "candidates", len(ch.Candidates))
	h, err := BuildHierarchy(ch.Candidates)
	if err != nil {
		setChannel(err, ch.ID)
		return nil, err
	}
	votes := make(map[Level]*LevelResult, len(Levels))
	for _, l := range Levels {
		lr, err := ReconcileLevel(h, l, ts)
		if err != nil {
			setChannel(err, ch.ID)
			return nil, err
		}
		votes[l] = lr
		logger.L().Debug("reconcile_level_done", "level", l, "clusters", lr.ClusterCount, "votes", lr.TotalVotes)
	}
	level0 := votes[LevelGPS].TotalVotes
	if err := ValidateReconciliation(votes, level0); err != nil {
		setChannel(err, ch.ID)
		return nil, err
	}
	return &Result{
		ReconciliationID: e.newID(),
		ChannelID:        ch.ID,
		ReconciledVotes:  votes,
		TotalVotes:       level0,
		Integrity:        IntegrityPerfect,
	}, nil
}

func setChannel(err error, id string) {
	var re *Error
	if errors.As(err, &re) {
		re.ChannelID = id
	}
}
