package recon

import "sort"

// bucket：构建期的聚类桶，TotalVotes 为逐个候选者累加的运行总数
type bucket struct {
	Candidates []*Candidate
	TotalVotes int64
	Metadata   map[string]any
}

// Hierarchy：层级 → 聚类键 → 桶
type Hierarchy map[Level]map[string]*bucket

// 文档注释：候选者规范排序
// 约束：票数降序，其次 id 升序，再次 name 升序；聚类成员排序与构建顺序共用此规则。
func lessCandidate(a, b *Candidate, va, vb int64) bool {
	if va != vb {
		return va > vb
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.Name < b.Name
}

func sortCandidates(cs []*Candidate) {
	votes := make(map[*Candidate]int64, len(cs))
	for _, c := range cs {
		votes[c] = VoteCountOf(c)
	}
	sort.SliceStable(cs, func(i, j int) bool { return lessCandidate(cs[i], cs[j], votes[cs[i]], votes[cs[j]]) })
}

// 文档注释：单遍构建六个层级的聚类桶
// 背景：桶在首次遇到时惰性创建，并从该候选者快照层级元数据；遍历前先按规范顺序排列，
// 因此“首个候选者”与输入顺序无关，打乱输入得到相同结果。
// 约束：调用前需已通过校验（聚类键齐全）。任一桶的运行总数超出 int64 时返回 InvalidVoteCount。
func BuildHierarchy(candidates []Candidate) (Hierarchy, error) {
	ordered := make([]*Candidate, len(candidates))
	for i := range candidates {
		ordered[i] = &candidates[i]
	}
	sortCandidates(ordered)
	h := make(Hierarchy, len(Levels))
	for _, l := range Levels {
		h[l] = make(map[string]*bucket)
	}
	for _, c := range ordered {
		v := VoteCountOf(c)
		for _, l := range Levels {
			key := c.ClusterKeys.Key(l)
			b, ok := h[l][key]
			if !ok {
				b = &bucket{Metadata: levelMetadata(l, c)}
				h[l][key] = b
			}
			total, ok := addVotes(b.TotalVotes, v)
			if !ok {
				return nil, &Error{Kind: KindInvalidVoteCount, CandidateID: c.ID, Level: l, ClusterKey: key, Field: "totalVotes", Value: "overflow"}
			}
			b.Candidates = append(b.Candidates, c)
			b.TotalVotes = total
		}
	}
	return h, nil
}

func levelMetadata(l Level, c *Candidate) map[string]any {
	switch l {
	case LevelGPS:
		m := map[string]any{"city": c.City, "province": c.Province, "country": c.Country}
		if c.Location != nil {
			m["lat"] = c.Location.Lat
			m["lng"] = c.Location.Lng
		}
		return m
	case LevelCity:
		return map[string]any{"city": c.City, "province": c.Province, "country": c.Country, "countryCode": c.CountryCode}
	case LevelProvince:
		return map[string]any{"province": c.Province, "country": c.Country, "countryCode": c.CountryCode}
	case LevelCountry:
		return map[string]any{"country": c.Country, "countryCode": c.CountryCode, "region": c.Region}
	case LevelRegion:
		return map[string]any{"region": c.Region}
	}
	return map[string]any{"scope": "GLOBAL"}
}
