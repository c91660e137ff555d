// 包 config：集中读取 .env 与环境变量，生成带默认值的类型化配置
package config

import (
	"math"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Postgres struct {
	Host         string
	Port         string
	User         string
	Password     string
	DB           string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type Redis struct {
	Host string
	Port string
	Pass string
	DB   int
}

type Stack struct {
	HeightPerCandidate float64
	MaxHeight          float64
	Footprint          float64
	VoteSaturation     float64
	IntensityFloor     float64
	Alpha              int
}

type Config struct {
	Addr             string
	APIBase          string
	LogLevel         string
	LogFormat        string
	StoreEnabled     bool
	Postgres         Postgres
	RedisEnabled     bool
	Redis            Redis
	ResultCacheTTL   time.Duration
	ResultCacheSize  int
	RateLimitEnabled bool
	RateLimitQPS     int
	AuditCapacity    int
	Stack            Stack
	TLSEnable        bool
	TLSCertPath      string
	TLSKeyPath       string
}

// 文档注释：加载配置
// 背景：先尝试加载工作目录与 data/env 下的 .env（不存在时忽略），再从环境变量读取；
// 与主入口原先散落的 os.Getenv 默认值保持一致。
// 约束：数值解析失败或越界时回退默认值，不返回错误。
func Load() *Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	return FromEnv()
}

// FromEnv：仅从当前进程环境变量构建配置（不读取 .env）
func FromEnv() *Config {
	return &Config{
		Addr:         getEnv("ADDR", ":8080"),
		APIBase:      getEnv("API_BASE", "/api"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		StoreEnabled: getBool("STORE_ENABLED", true),
		Postgres: Postgres{
			Host:         getEnv("PG_HOST", "localhost"),
			Port:         getEnv("PG_PORT", "5432"),
			User:         getEnv("PG_USER", "postgres"),
			Password:     os.Getenv("PG_PASSWORD"),
			DB:           getEnv("PG_DB", "voterecon"),
			SSLMode:      getEnv("PG_SSLMODE", "disable"),
			MaxOpenConns: getInt("PG_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getInt("PG_MAX_IDLE_CONNS", 10),
		},
		RedisEnabled: getBool("REDIS_ENABLED", true),
		Redis: Redis{
			Host: getEnv("REDIS_HOST", "127.0.0.1"),
			Port: getEnv("REDIS_PORT", "6379"),
			Pass: os.Getenv("REDIS_PASS"),
			DB:   getInt("REDIS_DB", 0),
		},
		ResultCacheTTL:   time.Duration(getInt("RESULT_CACHE_TTL_S", 600)) * time.Second,
		ResultCacheSize:  getInt("RESULT_CACHE_LRU_SIZE", 256),
		RateLimitEnabled: getBool("RATE_LIMIT_ENABLED", false),
		RateLimitQPS:     getInt("RATE_LIMIT_QPS", 200),
		AuditCapacity:    getInt("AUDIT_CAPACITY", 100),
		Stack: Stack{
			HeightPerCandidate: getFloat("STACK_HEIGHT_PER_CANDIDATE", 0.1),
			MaxHeight:          getFloat("STACK_MAX_HEIGHT", 2.0),
			Footprint:          getFloat("STACK_FOOTPRINT", 0.05),
			VoteSaturation:     getFloat("STACK_VOTE_SATURATION", 1000),
			IntensityFloor:     getFloatRange("STACK_INTENSITY_FLOOR", 0.3, 0, 1),
			Alpha:              getIntRange("STACK_ALPHA", 200, 0, 255),
		},
		TLSEnable:   getBool("TLS_ENABLE", false),
		TLSCertPath: getEnv("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:  getEnv("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
	}
}

// PostgresDSN：由分项配置生成连接串，用户名与密码按 URL userinfo 转义
func (c *Config) PostgresDSN() string {
	p := c.Postgres
	u := url.URL{
		Scheme:   "postgres",
		User:     url.User(p.User),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.DB,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u.String()
}

func (c *Config) RedisAddr() string { return net.JoinHostPort(c.Redis.Host, c.Redis.Port) }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getInt：非负整数；解析失败或为负时回退默认值
func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getIntRange(key string, def, lo, hi int) int {
	n := getInt(key, def)
	if n < lo || n > hi {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return def
	}
	return f
}

func getFloatRange(key string, def, lo, hi float64) float64 {
	f := getFloat(key, def)
	if f < lo || f > hi {
		return def
	}
	return f
}
