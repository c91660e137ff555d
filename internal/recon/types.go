// 包 recon：候选者投票的多层级对账与聚类引擎；一次调用对一个频道快照做全量重算，不持有可变全局状态
package recon

import "time"

// Level：聚合粒度标识，六个固定取值由细到粗
type Level string

const (
	LevelGPS      Level = "gps"
	LevelCity     Level = "city"
	LevelProvince Level = "province"
	LevelCountry  Level = "country"
	LevelRegion   Level = "region"
	LevelGlobal   Level = "global"
)

// Levels：按由细到粗排列；GPS 层总票数作为守恒校验基准
var Levels = []Level{LevelGPS, LevelCity, LevelProvince, LevelCountry, LevelRegion, LevelGlobal}

// ParseLevel：解析外部传入的层级字符串
func ParseLevel(s string) (Level, bool) {
	for _, l := range Levels {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// VoteComponents：分项票数（测试票/真实票/奖励票），缺省子字段按 0 计
type VoteComponents struct {
	TestVotes  *int64 `json:"testVotes,omitempty"`
	RealVotes  *int64 `json:"realVotes,omitempty"`
	BonusVotes *int64 `json:"bonusVotes,omitempty"`
}

// ClusterKeys：外部预先计算的各层级聚类键
type ClusterKeys struct {
	GPS      string `json:"gps"`
	City     string `json:"city"`
	Province string `json:"province"`
	Country  string `json:"country"`
	Region   string `json:"region"`
	Global   string `json:"global"`
}

// Key：按层级取聚类键；未知层级返回空串
func (k ClusterKeys) Key(l Level) string {
	switch l {
	case LevelGPS:
		return k.GPS
	case LevelCity:
		return k.City
	case LevelProvince:
		return k.Province
	case LevelCountry:
		return k.Country
	case LevelRegion:
		return k.Region
	case LevelGlobal:
		return k.Global
	}
	return ""
}

// 文档注释：候选者（输入，由外部协作方提供）
// 背景：票数可能以三种字段之一出现，统一在 ResolveVotes 中一次性归一。
// 约束：地理字段与聚类键必须完整，且不得包含 "unknown"；坐标需为有限数值。
type Candidate struct {
	ID             string          `json:"id"`
	Name           string          `json:"name,omitempty"`
	City           string          `json:"city"`
	Province       string          `json:"province"`
	Country        string          `json:"country"`
	Region         string          `json:"region"`
	CountryCode    string          `json:"countryCode"`
	Location       *Location       `json:"location"`
	Votes          *int64          `json:"votes,omitempty"`
	VoteComponents *VoteComponents `json:"voteComponents,omitempty"`
	VoteCount      *int64          `json:"voteCount,omitempty"`
	ClusterKeys    *ClusterKeys    `json:"clusterKeys"`
}

// Channel：一次投票竞赛及其候选者快照
type Channel struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Candidates []Candidate `json:"candidates"`
}

type Centroid struct {
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	ValidLocations  int     `json:"validLocations"`
	TotalCandidates int     `json:"totalCandidates"`
}

// 文档注释：某层级下一个聚类键对应的聚类
// 约束：TotalVotes 必须等于成员票数之和（对账时重算校验，而非信任构建期累加值）。
type Cluster struct {
	ClusterKey              string         `json:"clusterKey"`
	Level                   Level          `json:"level"`
	CandidateCount          int            `json:"candidateCount"`
	TotalVotes              int64          `json:"totalVotes"`
	Candidates              []Candidate    `json:"candidates"`
	Centroid                Centroid       `json:"centroid"`
	Metadata                map[string]any `json:"metadata"`
	ReconciliationTimestamp time.Time      `json:"reconciliationTimestamp"`
}

type LevelResult struct {
	Level                  Level      `json:"level"`
	Clusters               []*Cluster `json:"clusters"`
	ClusterCount           int        `json:"clusterCount"`
	TotalCandidates        int        `json:"totalCandidates"`
	TotalVotes             int64      `json:"totalVotes"`
	ReconciliationComplete bool       `json:"reconciliationComplete"`
}

type Integrity string

const (
	IntegrityPerfect Integrity = "PERFECT"
	IntegrityFailed  Integrity = "FAILED"
)

// 文档注释：对账结果（每次 Reconcile 调用一份）
// 约束：只有通过守恒校验的结果才会返回，Integrity 恒为 PERFECT；失败以 error 形式返回。
// ReconciliationTime 序列化为纳秒整数。
type Result struct {
	ReconciliationID   string                 `json:"reconciliationId"`
	ChannelID          string                 `json:"channelId"`
	ReconciledVotes    map[Level]*LevelResult `json:"reconciledVotes"`
	TotalVotes         int64                  `json:"totalVotes"`
	ReconciliationTime time.Duration          `json:"reconciliationTime"`
	Integrity          Integrity              `json:"integrity"`
}
