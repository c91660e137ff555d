// 包 logger：对账服务的访问日志中间件，为每个请求分配请求 id 并记录结果状态
package logger

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader 请求 id 的出入站头部
const RequestIDHeader = "X-Request-Id"

const maxRequestIDLen = 64

type ctxKey struct{}

// RequestIDFrom：读取中间件写入上下文的请求 id；未经中间件时为空
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// accessWriter 记录首次写头的状态码与响应体字节数
type accessWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *accessWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *accessWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// Unwrap 供 http.ResponseController 访问底层 writer
func (w *accessWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// AccessMiddleware：访问日志中间件
// 约束：入站 X-Request-Id 合法时沿用，否则生成 uuid；该 id 写回响应头并注入上下文
// 日志级别按状态分档：5xx 为 warn，4xx 为 info，其余为 debug；不读取请求体
func AccessMiddleware(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := requestID(r.Header.Get(RequestIDHeader))
			w.Header().Set(RequestIDHeader, rid)
			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, rid))

			aw := &accessWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(aw, r)
			if aw.status == 0 {
				aw.status = http.StatusOK
			}

			l.Log(r.Context(), accessLevel(aw.status), "http_access",
				"rid", rid,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", aw.status,
				"bytes", aw.written,
				"duration_ms", time.Since(start).Milliseconds(),
				"ip", r.RemoteAddr,
			)
		})
	}
}

func accessLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelWarn
	case status >= http.StatusBadRequest:
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// requestID：仅接受长度不超过 maxRequestIDLen 的可见 ASCII，否则生成新 uuid
func requestID(in string) string {
	if in == "" || len(in) > maxRequestIDLen {
		return uuid.NewString()
	}
	for i := 0; i < len(in); i++ {
		if in[i] <= ' ' || in[i] > '~' {
			return uuid.NewString()
		}
	}
	return in
}
