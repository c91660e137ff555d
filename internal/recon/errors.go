package recon

import (
	"fmt"
	"strings"
)

// Kind：错误分类
type Kind string

const (
	KindMissingChannelID     Kind = "MissingChannelId"
	KindEmptyCandidateList   Kind = "EmptyCandidateList"
	KindMissingCandidateID   Kind = "MissingCandidateId"
	KindDuplicateCandidateID Kind = "DuplicateCandidateId"
	KindMissingClusterKey    Kind = "MissingClusterKey"
	KindInvalidGeography     Kind = "InvalidGeography"
	KindInvalidLocation      Kind = "InvalidLocation"
	KindInvalidVoteCount     Kind = "InvalidVoteCount"

	KindVoteMismatch              Kind = "VoteMismatch"
	KindIncompleteLevel           Kind = "IncompleteLevel"
	KindVoteConservationViolation Kind = "VoteConservationViolation"
)

// Internal：是否为内部一致性错误（构建/对账缺陷），而非输入问题
func (k Kind) Internal() bool {
	switch k {
	case KindVoteMismatch, KindIncompleteLevel, KindVoteConservationViolation:
		return true
	}
	return false
}

// 文档注释：引擎统一错误类型
// 背景：输入形态错误与内部一致性错误共用一个结构，调用方按 Kind 区分处理（可修正的输入 vs 内部缺陷）。
// 约束：errors.Is 仅比较 Kind，便于与下方哨兵值匹配；字段细节通过 errors.As 读取。
type Error struct {
	Kind        Kind
	ChannelID   string
	CandidateID string
	Level       Level
	ClusterKey  string
	Field       string
	Value       string
	Expected    int64
	Actual      int64
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	switch e.Kind {
	case KindMissingClusterKey:
		fmt.Fprintf(&b, "(%s)", e.Level)
	case KindInvalidGeography:
		fmt.Fprintf(&b, "(%q, %q)", e.Field, e.Value)
	case KindInvalidLocation, KindInvalidVoteCount, KindDuplicateCandidateID:
		if e.ClusterKey != "" {
			fmt.Fprintf(&b, "(%s, %q, %s=%s)", e.Level, e.ClusterKey, e.Field, e.Value)
		} else if e.Field != "" {
			fmt.Fprintf(&b, "(%s=%s)", e.Field, e.Value)
		}
	case KindVoteMismatch:
		fmt.Fprintf(&b, "(%s, %q, computed=%d, stored=%d)", e.Level, e.ClusterKey, e.Actual, e.Expected)
	case KindIncompleteLevel:
		fmt.Fprintf(&b, "(%s)", e.Level)
	case KindVoteConservationViolation:
		fmt.Fprintf(&b, "(%s, expected=%d, actual=%d)", e.Level, e.Expected, e.Actual)
	}
	if e.ChannelID != "" {
		fmt.Fprintf(&b, " channel=%s", e.ChannelID)
	}
	if e.CandidateID != "" {
		fmt.Fprintf(&b, " candidate=%s", e.CandidateID)
	}
	return b.String()
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingChannelID          = &Error{Kind: KindMissingChannelID}
	ErrEmptyCandidateList        = &Error{Kind: KindEmptyCandidateList}
	ErrMissingCandidateID        = &Error{Kind: KindMissingCandidateID}
	ErrDuplicateCandidateID      = &Error{Kind: KindDuplicateCandidateID}
	ErrMissingClusterKey         = &Error{Kind: KindMissingClusterKey}
	ErrInvalidGeography          = &Error{Kind: KindInvalidGeography}
	ErrInvalidLocation           = &Error{Kind: KindInvalidLocation}
	ErrInvalidVoteCount          = &Error{Kind: KindInvalidVoteCount}
	ErrVoteMismatch              = &Error{Kind: KindVoteMismatch}
	ErrIncompleteLevel           = &Error{Kind: KindIncompleteLevel}
	ErrVoteConservationViolation = &Error{Kind: KindVoteConservationViolation}
)
