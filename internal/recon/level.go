package recon

import (
	"sort"
	"time"

	"vote-recon/internal/logger"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// 文档注释：单层级对账
// 背景：逐桶重算成员票数之和并与构建期运行总数比对，不一致即视为构建缺陷（VoteMismatch，致命）；
// 同时计算质心、排序成员与聚类，产出确定性的 LevelResult。
// 约束：聚类按总票数降序，平票按聚类键升序；成员排序见 lessCandidate。
func ReconcileLevel(h Hierarchy, l Level, ts time.Time) (*LevelResult, error) {
	buckets, ok := h[l]
	if !ok {
		return nil, &Error{Kind: KindIncompleteLevel, Level: l}
	}
	res := &LevelResult{Level: l, Clusters: make([]*Cluster, 0, len(buckets))}
	for key, b := range buckets {
		var computed int64
		for _, c := range b.Candidates {
			n, ok := addVotes(computed, VoteCountOf(c))
			if !ok {
				return nil, &Error{Kind: KindInvalidVoteCount, CandidateID: c.ID, Level: l, ClusterKey: key, Field: "totalVotes", Value: "overflow"}
			}
			computed = n
		}
		if computed != b.TotalVotes {
			return nil, &Error{Kind: KindVoteMismatch, Level: l, ClusterKey: key, Actual: computed, Expected: b.TotalVotes}
		}
		members := append([]*Candidate(nil), b.Candidates...)
		sortCandidates(members)
		cl := &Cluster{
			ClusterKey:              key,
			Level:                   l,
			CandidateCount:          len(members),
			TotalVotes:              computed,
			Candidates:              make([]Candidate, len(members)),
			Centroid:                centroidOf(members),
			Metadata:                b.Metadata,
			ReconciliationTimestamp: ts,
		}
		for i, c := range members {
			cl.Candidates[i] = *c
		}
		if cl.Centroid.ValidLocations == 0 {
			logger.L().Warn("centroid_no_valid_locations", "level", l, "cluster", key, "candidates", len(members))
		}
		total, ok := addVotes(res.TotalVotes, cl.TotalVotes)
		if !ok {
			return nil, &Error{Kind: KindInvalidVoteCount, Level: l, ClusterKey: key, Field: "totalVotes", Value: "overflow"}
		}
		res.Clusters = append(res.Clusters, cl)
		res.TotalCandidates += cl.CandidateCount
		res.TotalVotes = total
	}
	sort.Slice(res.Clusters, func(i, j int) bool {
		a, b := res.Clusters[i], res.Clusters[j]
		if a.TotalVotes != b.TotalVotes {
			return a.TotalVotes > b.TotalVotes
		}
		return a.ClusterKey < b.ClusterKey
	})
	res.ClusterCount = len(res.Clusters)
	res.ReconciliationComplete = true
	return res, nil
}

// centroidOf：有效坐标的算术平均；无有效坐标时为 {0,0}
func centroidOf(members []*Candidate) Centroid {
	mp := make(orb.MultiPoint, 0, len(members))
	for _, c := range members {
		if c.Location == nil || !finite(c.Location.Lat) || !finite(c.Location.Lng) {
			continue
		}
		mp = append(mp, orb.Point{c.Location.Lng, c.Location.Lat})
	}
	out := Centroid{ValidLocations: len(mp), TotalCandidates: len(members)}
	if len(mp) == 0 {
		return out
	}
	p, _ := planar.CentroidArea(mp)
	out.Lat = p.Lat()
	out.Lng = p.Lon()
	return out
}
