// 包 api：集中注册 HTTP API 路由以解耦主入口；引擎本身不感知传输层
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"vote-recon/internal/audit"
	"vote-recon/internal/cache"
	"vote-recon/internal/logger"
	"vote-recon/internal/recon"
	"vote-recon/internal/stack"
	"vote-recon/internal/store"
)

const maxBodyBytes = 32 << 20

// Deps：路由依赖；Store 可为 nil（未启用数据库时快照相关路由返回 503）
type Deps struct {
	Engine    *recon.Engine
	Projector *stack.Projector
	Audit     *audit.Log
	Cache     cache.ResultCache
	Store     ChannelStore
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	h := &handlers{Deps: d}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /reconcile", h.reconcile)
	mux.HandleFunc("POST /reconcile/batch", h.reconcileBatch)
	mux.HandleFunc("GET /stacks", h.stacks)
	mux.HandleFunc("GET /reconciliation/stats", h.stats)
	mux.HandleFunc("PUT /channels", h.saveChannel)
	mux.HandleFunc("GET /channels/reconcile", h.reconcileStored)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

type handlers struct {
	Deps
}

func (h *handlers) reconcile(w http.ResponseWriter, r *http.Request) {
	var ch recon.Channel
	if !decodeBody(w, r, &ch) {
		return
	}
	res, err := h.Engine.Reconcile(&ch)
	if err != nil {
		writeError(w, err)
		return
	}
	h.Cache.Set(r.Context(), res)
	writeJSON(w, http.StatusOK, res)
}

// 文档注释：批量对账
// 背景：各频道相互独立，按频道并发执行；单个频道失败不影响其它频道，错误随条目返回。
// 约束：返回顺序与请求顺序一致。
func (h *handlers) reconcileBatch(w http.ResponseWriter, r *http.Request) {
	var chs []recon.Channel
	if !decodeBody(w, r, &chs) {
		return
	}
	out := make([]batchItem, len(chs))
	var wg sync.WaitGroup
	for i := range chs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i].ChannelID = chs[i].ID
			res, err := h.Engine.Reconcile(&chs[i])
			if err != nil {
				_, body := classify(err)
				out[i].Error = &body
				return
			}
			out[i].Result = res
		}(i)
	}
	wg.Wait()
	for _, it := range out {
		if it.Result != nil {
			h.Cache.Set(r.Context(), it.Result)
		}
	}
	logger.L().Debug("reconcile_batch_done", "channels", len(chs))
	writeJSON(w, http.StatusOK, out)
}

// 文档注释：按层级生成柱体
// 背景：优先复用缓存中的对账结果；未命中且启用数据库时读取快照并重新对账。
func (h *handlers) stacks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	level, ok := recon.ParseLevel(q.Get("level"))
	if !ok {
		writeError(w, stack.ErrUnknownLevel)
		return
	}
	id := q.Get("channel")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "BadRequest", Message: "channel is required"})
		return
	}
	res, found := h.Cache.Get(r.Context(), id)
	if !found {
		var err error
		res, err = h.loadAndReconcile(r, id)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	stacks, err := h.Projector.GenerateStacks(res.ReconciledVotes, level)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stacks)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("cache-control", "no-store")
	writeJSON(w, http.StatusOK, h.Audit.Stats())
}

func (h *handlers) saveChannel(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "StoreDisabled", Message: "channel store is not configured"})
		return
	}
	var ch recon.Channel
	if !decodeBody(w, r, &ch) {
		return
	}
	if ch.ID == "" {
		writeError(w, &recon.Error{Kind: recon.KindMissingChannelID})
		return
	}
	if err := h.Store.SaveChannel(r.Context(), &ch); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) reconcileStored(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, &recon.Error{Kind: recon.KindMissingChannelID})
		return
	}
	res, err := h.loadAndReconcile(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) loadAndReconcile(r *http.Request, id string) (*recon.Result, error) {
	if h.Store == nil {
		return nil, store.ErrChannelNotFound
	}
	ch, err := h.Store.LoadChannel(r.Context(), id)
	if err != nil {
		return nil, err
	}
	res, err := h.Engine.Reconcile(ch)
	if err != nil {
		return nil, err
	}
	h.Cache.Set(r.Context(), res)
	return res, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "BadRequest", Message: err.Error()})
		return false
	}
	return true
}

// classify：错误 → HTTP 状态码与对外错误体
func classify(err error) (int, errorBody) {
	var re *recon.Error
	switch {
	case errors.As(err, &re):
		if re.Kind.Internal() {
			return http.StatusInternalServerError, errorBody{Error: string(re.Kind), Message: re.Error()}
		}
		return http.StatusUnprocessableEntity, errorBody{Error: string(re.Kind), Message: re.Error()}
	case errors.Is(err, stack.ErrUnknownLevel):
		return http.StatusBadRequest, errorBody{Error: "UnknownLevel", Message: "level must be one of gps, city, province, country, region, global"}
	case errors.Is(err, store.ErrChannelNotFound):
		return http.StatusNotFound, errorBody{Error: "ChannelNotFound", Message: err.Error()}
	}
	return http.StatusInternalServerError, errorBody{Error: "Internal", Message: "internal error"}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("api_error", "rid", w.Header().Get(logger.RequestIDHeader), "status", status, "err", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
