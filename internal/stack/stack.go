// 包 stack：将某一层级的对账聚类投影为可渲染的 3D 柱体描述
package stack

import (
	"errors"
	"math"

	"vote-recon/internal/metrics"
	"vote-recon/internal/recon"
)

var ErrUnknownLevel = errors.New("unknown level")

type RGB [3]uint8

// 文档注释：渲染样式（注入式配置）
// 背景：颜色与高度缩放常量与聚合逻辑分离，调整渲染风格无需改动对账代码。
type Style struct {
	LevelColors        map[recon.Level]RGB
	HeightPerCandidate float64
	MaxHeight          float64
	Footprint          float64
	VoteSaturation     float64
	IntensityFloor     float64
	Alpha              uint8
}

func DefaultStyle() Style {
	return Style{
		LevelColors: map[recon.Level]RGB{
			recon.LevelGPS:      {255, 0, 0},
			recon.LevelCity:     {255, 165, 0},
			recon.LevelProvince: {255, 255, 0},
			recon.LevelCountry:  {0, 255, 0},
			recon.LevelRegion:   {0, 0, 255},
			recon.LevelGlobal:   {128, 0, 128},
		},
		HeightPerCandidate: 0.1,
		MaxHeight:          2.0,
		Footprint:          0.05,
		VoteSaturation:     1000,
		IntensityFloor:     0.3,
		Alpha:              200,
	}
}

type Position struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Height float64 `json:"height"`
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Height float64 `json:"height"`
}

type Stack struct {
	ID             string            `json:"id"`
	Level          recon.Level       `json:"level"`
	ClusterKey     string            `json:"clusterKey"`
	Position       Position          `json:"position"`
	Dimensions     Dimensions        `json:"dimensions"`
	CandidateCount int               `json:"candidateCount"`
	TotalVotes     int64             `json:"totalVotes"`
	Candidates     []recon.Candidate `json:"candidates"`
	Color          [4]uint8          `json:"color"`
	Opacity        float64           `json:"opacity"`
	Metadata       map[string]any    `json:"metadata"`
}

type Projector struct {
	style Style
}

func NewProjector(s Style) *Projector { return &Projector{style: s} }

// 文档注释：按目标层级生成柱体
// 背景：柱高 = min(成员数 × HeightPerCandidate, MaxHeight)，避免超大聚类压过整个视图；
// 柱体中心高度取半高，使其“立”在地面上。
// 约束：输出顺序继承聚类顺序（总票数降序）；目标层级不存在时返回 ErrUnknownLevel。
func (p *Projector) GenerateStacks(votes map[recon.Level]*recon.LevelResult, target recon.Level) ([]Stack, error) {
	lr, ok := votes[target]
	if !ok || lr == nil {
		return nil, ErrUnknownLevel
	}
	out := make([]Stack, 0, len(lr.Clusters))
	for _, c := range lr.Clusters {
		h := math.Min(float64(c.CandidateCount)*p.style.HeightPerCandidate, p.style.MaxHeight)
		out = append(out, Stack{
			ID:             string(target) + ":" + c.ClusterKey,
			Level:          target,
			ClusterKey:     c.ClusterKey,
			Position:       Position{Lat: c.Centroid.Lat, Lng: c.Centroid.Lng, Height: h / 2},
			Dimensions:     Dimensions{Width: p.style.Footprint, Depth: p.style.Footprint, Height: h},
			CandidateCount: c.CandidateCount,
			TotalVotes:     c.TotalVotes,
			Candidates:     c.Candidates,
			Color:          p.Color(target, c.TotalVotes),
			Opacity:        float64(p.style.Alpha) / 255,
			Metadata:       c.Metadata,
		})
	}
	metrics.StacksGeneratedTotal.WithLabelValues(string(target)).Add(float64(len(out)))
	return out, nil
}

// Color：由 (层级, 总票数) 确定的 RGBA；强度 = max(min(votes/VoteSaturation, 1), IntensityFloor)，再截断到 [0,1]
func (p *Projector) Color(l recon.Level, totalVotes int64) [4]uint8 {
	base := p.style.LevelColors[l]
	intensity := 1.0
	if p.style.VoteSaturation > 0 {
		intensity = math.Min(float64(totalVotes)/p.style.VoteSaturation, 1.0)
	}
	intensity = math.Min(math.Max(intensity, p.style.IntensityFloor), 1.0)
	intensity = math.Max(intensity, 0)
	var out [4]uint8
	for i := 0; i < 3; i++ {
		out[i] = uint8(math.Round(float64(base[i]) * intensity))
	}
	out[3] = p.style.Alpha
	return out
}
