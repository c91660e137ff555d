package recon

import (
	"math"
	"strconv"
	"strings"
)

// GeographyRule：地理字段质量规则；返回 false 表示该值不可接受
type GeographyRule func(field, value string) bool

// 文档注释：默认地理规则（占位值检测）
// 背景：上游用含 "unknown" 的字符串表示未能解析的层级，此处按大小写不敏感子串拒绝。
// 约束：仅识别 "unknown"；"N/A" 等其它占位值会通过，需要更严格规则时通过 WithGeographyRule 替换。
func RejectUnknown(field, value string) bool {
	return !strings.Contains(strings.ToLower(value), "unknown")
}

// ValidateChannel：频道级校验，随后逐个校验候选者；遇到第一个违规即返回。
// 候选者 id 在频道内必须唯一，规范排序依赖 id 作为全序键。
func ValidateChannel(ch *Channel, rule GeographyRule) error {
	if ch == nil || ch.ID == "" {
		return &Error{Kind: KindMissingChannelID}
	}
	if len(ch.Candidates) == 0 {
		return &Error{Kind: KindEmptyCandidateList, ChannelID: ch.ID}
	}
	seen := make(map[string]struct{}, len(ch.Candidates))
	for i := range ch.Candidates {
		c := &ch.Candidates[i]
		if err := ValidateCandidate(c, rule); err != nil {
			if e, ok := err.(*Error); ok {
				e.ChannelID = ch.ID
			}
			return err
		}
		if _, dup := seen[c.ID]; dup {
			return &Error{Kind: KindDuplicateCandidateID, ChannelID: ch.ID, CandidateID: c.ID, Field: "id", Value: c.ID}
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// 文档注释：候选者校验
// 约束：检查顺序固定（id → 聚类键 → 地理字段 → 坐标 → 票数），保证同一输入总是报告同一错误。
func ValidateCandidate(c *Candidate, rule GeographyRule) error {
	if rule == nil {
		rule = RejectUnknown
	}
	if c.ID == "" {
		return &Error{Kind: KindMissingCandidateID, Field: "id"}
	}
	if c.ClusterKeys == nil {
		return &Error{Kind: KindMissingClusterKey, CandidateID: c.ID, Level: LevelGPS, Field: "clusterKeys"}
	}
	for _, l := range Levels {
		if c.ClusterKeys.Key(l) == "" {
			return &Error{Kind: KindMissingClusterKey, CandidateID: c.ID, Level: l, Field: "clusterKeys." + string(l)}
		}
	}
	geo := [...]struct{ field, value string }{
		{"city", c.City},
		{"province", c.Province},
		{"country", c.Country},
		{"region", c.Region},
	}
	for _, g := range geo {
		if g.value == "" || !rule(g.field, g.value) {
			return &Error{Kind: KindInvalidGeography, CandidateID: c.ID, Field: g.field, Value: g.value}
		}
	}
	if c.Location == nil {
		return &Error{Kind: KindInvalidLocation, CandidateID: c.ID, Field: "location", Value: "missing"}
	}
	if !finite(c.Location.Lat) {
		return &Error{Kind: KindInvalidLocation, CandidateID: c.ID, Field: "location.lat", Value: strconv.FormatFloat(c.Location.Lat, 'g', -1, 64)}
	}
	if !finite(c.Location.Lng) {
		return &Error{Kind: KindInvalidLocation, CandidateID: c.ID, Field: "location.lng", Value: strconv.FormatFloat(c.Location.Lng, 'g', -1, 64)}
	}
	t := ResolveVotes(c)
	if t.Overflow {
		return &Error{Kind: KindInvalidVoteCount, CandidateID: c.ID, Field: t.Source.String(), Value: "overflow"}
	}
	if t.Count < 0 {
		return &Error{Kind: KindInvalidVoteCount, CandidateID: c.ID, Field: t.Source.String(), Value: strconv.FormatInt(t.Count, 10)}
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
