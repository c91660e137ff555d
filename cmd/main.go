// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"vote-recon/internal/api"
	"vote-recon/internal/audit"
	"vote-recon/internal/cache"
	"vote-recon/internal/config"
	"vote-recon/internal/logger"
	"vote-recon/internal/metrics"
	"vote-recon/internal/middleware"
	"vote-recon/internal/migrate"
	"vote-recon/internal/recon"
	"vote-recon/internal/stack"
	"vote-recon/internal/store"
	"vote-recon/internal/utils"
)

func main() {
	cfg := config.Load()
	l := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	l.Debug("log_init_ok")
	l.Debug("config_api_base", "base", cfg.APIBase)

	auditLog := audit.New(cfg.AuditCapacity)
	engine := recon.NewEngine(recon.WithRecorder(auditLog))
	projector := stack.NewProjector(styleFromConfig(cfg))

	deps := api.Deps{Engine: engine, Projector: projector, Audit: auditLog}

	// 快照库可选：未启用或不可达时仅提供 POST /reconcile 等无状态路由
	if cfg.StoreEnabled {
		db, err := utils.OpenPostgres(cfg)
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
		} else if err := migrate.EnsureSchema(ctx, db); err != nil {
			l.Error("schema_error", "err", err)
		} else {
			l.Info("db_ready")
			deps.Store = store.AttachDB(db)
		}
		cancel()
	} else {
		l.Info("store_disabled")
	}

	rc := utils.OpenRedis(cfg)
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		cancel()
		defer rc.Close()
	}
	deps.Cache = cache.New(rc, cfg.ResultCacheSize, cfg.ResultCacheTTL)

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(deps)
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())

	var handler http.Handler = mux
	if cfg.RateLimitEnabled {
		handler = middleware.RateLimit(handler, cfg.RateLimitQPS)
		l.Info("rate_limit_enabled", "qps", cfg.RateLimitQPS)
	}
	handler = logger.AccessMiddleware(l)(handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	if cfg.TLSEnable {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "vote-recon.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		if err := s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath); err != nil {
			l.Error("server_error", "err", err)
		}
		return
	}
	l.Info("listening", "addr", cfg.Addr)
	if err := s.ListenAndServe(); err != nil {
		l.Error("server_error", "err", err)
	}
}

func styleFromConfig(cfg *config.Config) stack.Style {
	st := stack.DefaultStyle()
	st.HeightPerCandidate = cfg.Stack.HeightPerCandidate
	st.MaxHeight = cfg.Stack.MaxHeight
	st.Footprint = cfg.Stack.Footprint
	st.VoteSaturation = cfg.Stack.VoteSaturation
	st.IntensityFloor = cfg.Stack.IntensityFloor
	st.Alpha = uint8(cfg.Stack.Alpha)
	return st
}
