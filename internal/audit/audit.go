// 包 audit：对账历史的有界内存审计日志，仅记录成功的对账
package audit

import (
	"sync"
	"time"

	"vote-recon/internal/recon"
)

const (
	DefaultCapacity = 100
	recentWindow    = 10
)

// LevelSummary：单层级的紧凑摘要
type LevelSummary struct {
	Clusters   int   `json:"clusters"`
	Candidates int   `json:"candidates"`
	Votes      int64 `json:"votes"`
}

type Entry struct {
	ReconciliationID string                       `json:"reconciliationId"`
	ChannelID        string                       `json:"channelId"`
	DurationMs       float64                      `json:"durationMs"`
	RecordedAt       time.Time                    `json:"recordedAt"`
	Levels           map[recon.Level]LevelSummary `json:"levels"`
}

type Stats struct {
	TotalReconciliations      int64   `json:"totalReconciliations"`
	RecentReconciliations     []Entry `json:"recentReconciliations"`
	AverageReconciliationTime float64 `json:"averageReconciliationTime"`
}

// 文档注释：有界审计日志（环形缓冲）
// 背景：保留最近若干次对账摘要供运维查看；写入由互斥锁串行化，读取在同一把锁下取快照。
// 约束：容量满时覆盖最旧条目；TotalReconciliations 为进程内累计次数，平均耗时按当前保留窗口计算。
type Log struct {
	mu    sync.Mutex
	buf   []Entry
	head  int
	size  int
	total int64
	now   func() time.Time
}

// New：创建审计日志，capacity<=0 时使用默认容量 100
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{buf: make([]Entry, capacity), now: time.Now}
}

// Record：实现 recon.Recorder
func (l *Log) Record(reconciliationID, channelID string, votes map[recon.Level]*recon.LevelResult, d time.Duration) {
	e := Entry{
		ReconciliationID: reconciliationID,
		ChannelID:        channelID,
		DurationMs:       float64(d.Microseconds()) / 1000,
		Levels:           make(map[recon.Level]LevelSummary, len(votes)),
	}
	for lvl, lr := range votes {
		if lr == nil {
			continue
		}
		e.Levels[lvl] = LevelSummary{Clusters: lr.ClusterCount, Candidates: lr.TotalCandidates, Votes: lr.TotalVotes}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e.RecordedAt = l.now()
	idx := (l.head + l.size) % len(l.buf)
	if l.size == len(l.buf) {
		l.head = (l.head + 1) % len(l.buf)
	} else {
		l.size++
	}
	l.buf[idx] = e
	l.total++
}

// Entries：按时间顺序（最旧在前）返回当前保留的全部条目
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Log) snapshot() []Entry {
	out := make([]Entry, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.buf[(l.head+i)%len(l.buf)]
	}
	return out
}

// Stats：累计次数、最近 10 条（最新在后）与平均耗时（毫秒）
func (l *Log) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := l.snapshot()
	s := Stats{TotalReconciliations: l.total, RecentReconciliations: []Entry{}}
	if len(all) == 0 {
		return s
	}
	var sum float64
	for _, e := range all {
		sum += e.DurationMs
	}
	s.AverageReconciliationTime = sum / float64(len(all))
	from := len(all) - recentWindow
	if from < 0 {
		from = 0
	}
	s.RecentReconciliations = all[from:]
	return s
}
