package recon

import "math"

// VoteSource：票数来自哪一种表示
type VoteSource int

const (
	VoteSourceNone VoteSource = iota
	VoteSourceDirect
	VoteSourceComponents
	VoteSourceLegacy
)

func (s VoteSource) String() string {
	switch s {
	case VoteSourceDirect:
		return "votes"
	case VoteSourceComponents:
		return "voteComponents"
	case VoteSourceLegacy:
		return "voteCount"
	}
	return "none"
}

// Tally：归一后的票数（带来源标记的和类型）
// Overflow 为 true 时 Count 无意义（分项相加超出 int64）。
type Tally struct {
	Source   VoteSource
	Count    int64
	Overflow bool
}

// 文档注释：解析候选者票数
// 背景：源数据可能携带 votes / voteComponents / voteCount 之一，按此顺序取第一个存在的表示。
// 约束：不做非负校验，负值由校验器以 InvalidVoteCount 拒绝；无任何票数信息时计 0。
func ResolveVotes(c *Candidate) Tally {
	if c == nil {
		return Tally{}
	}
	if c.Votes != nil {
		return Tally{Source: VoteSourceDirect, Count: *c.Votes}
	}
	if vc := c.VoteComponents; vc != nil {
		t := Tally{Source: VoteSourceComponents}
		for _, p := range [...]*int64{vc.TestVotes, vc.RealVotes, vc.BonusVotes} {
			n, ok := addVotes(t.Count, deref(p))
			if !ok {
				return Tally{Source: VoteSourceComponents, Overflow: true}
			}
			t.Count = n
		}
		return t
	}
	if c.VoteCount != nil {
		return Tally{Source: VoteSourceLegacy, Count: *c.VoteCount}
	}
	return Tally{}
}

// VoteCountOf：候选者的规范票数
func VoteCountOf(c *Candidate) int64 { return ResolveVotes(c).Count }

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// addVotes：带溢出检测的加法；ok=false 表示结果超出 int64
func addVotes(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
