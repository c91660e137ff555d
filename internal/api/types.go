package api

import (
	"context"

	"vote-recon/internal/recon"
)

// ChannelStore：候选者快照来源（Postgres 实现见 internal/store）
type ChannelStore interface {
	LoadChannel(ctx context.Context, id string) (*recon.Channel, error)
	SaveChannel(ctx context.Context, ch *recon.Channel) error
}

// 文档注释：错误返回结构（对外）
// 约束：kind 与引擎错误分类一一对应；基础设施错误统一为 "Internal"。
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// batchItem：批量对账中单个频道的结果，Result 与 Error 互斥
type batchItem struct {
	ChannelID string        `json:"channelId"`
	Result    *recon.Result `json:"result,omitempty"`
	Error     *errorBody    `json:"error,omitempty"`
}
