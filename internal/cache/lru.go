package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"vote-recon/internal/recon"
)

// 文档注释：进程内 LRU（频道 id 为键）
// 背景：Redis 未启用或不可达时兜底，使 /stacks 在同一进程内仍可复用最近一次对账结果。
// 约束：容量与 TTL 在构造时固定；过期条目在读取时惰性淘汰。
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type lruItem struct {
	k   string
	v   *recon.Result
	exp time.Time
}

func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU{cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[string]*list.Element), now: time.Now}
}

func (c *LRU) Get(_ context.Context, channelID string) (*recon.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[channelID]
	if !ok {
		return nil, false
	}
	it := e.Value.(lruItem)
	if c.now().Before(it.exp) {
		c.lst.MoveToFront(e)
		return it.v, true
	}
	c.lst.Remove(e)
	delete(c.dict, channelID)
	return nil, false
}

func (c *LRU) Set(_ context.Context, r *recon.Result) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	it := lruItem{k: r.ChannelID, v: r, exp: c.now().Add(c.ttl)}
	if e, ok := c.dict[r.ChannelID]; ok {
		e.Value = it
		c.lst.MoveToFront(e)
		return
	}
	c.dict[r.ChannelID] = c.lst.PushFront(it)
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.dict, back.Value.(lruItem).k)
		c.lst.Remove(back)
	}
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
