package conf

import (
	"time"

	"github.com/ankurMishraDev/GenX-AI/pkg/clients/httpclient"
	"github.com/ankurMishraDev/GenX-AI/pkg/config"
	"github.com/ankurMishraDev/GenX-AI/pkg/discovery"
	"github.com/ankurMishraDev/GenX-AI/pkg/logger"
	"github.com/ankurMishraDev/GenX-AI/pkg/observability"
)

const (
	// ServiceName 服务名
	ServiceName = "live-relay"
	// EnvPrefix 环境变量前缀
	EnvPrefix = "LIVE_RELAY"
)

// Bootstrap 服务全部配置
type Bootstrap struct {
	Server          Server                      `mapstructure:"server" yaml:"server"`
	Log             logger.Config               `mapstructure:"log" yaml:"log"`
	Tracing         observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Relay           Relay                       `mapstructure:"relay" yaml:"relay"`
	Upstream        Upstream                    `mapstructure:"upstream" yaml:"upstream"`
	Backend         Backend                     `mapstructure:"backend" yaml:"backend"`
	Personalization Personalization             `mapstructure:"personalization" yaml:"personalization"`
	Summary         Summary                     `mapstructure:"summary" yaml:"summary"`
	Exercises       Exercises                   `mapstructure:"exercises" yaml:"exercises"`
	Redis           Redis                       `mapstructure:"redis" yaml:"redis"`
	Kafka           Kafka                       `mapstructure:"kafka" yaml:"kafka"`
	PostHog         PostHog                     `mapstructure:"posthog" yaml:"posthog"`
	Auth            Auth                        `mapstructure:"auth" yaml:"auth"`
	Consul          Consul                      `mapstructure:"consul" yaml:"consul"`
}

// Server HTTP 与 websocket 配置
type Server struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	Mode            string        `mapstructure:"mode" yaml:"mode"` // gin 模式
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	PingInterval    time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	PongWait        time.Duration `mapstructure:"pong_wait" yaml:"pong_wait"`
	WriteWait       time.Duration `mapstructure:"write_wait" yaml:"write_wait"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	EnableDebug     bool          `mapstructure:"enable_debug" yaml:"enable_debug"`

	// HandshakeRateLimit 每个 IP 每分钟握手次数，依赖 Redis
	HandshakeRateLimit int `mapstructure:"handshake_rate_limit" yaml:"handshake_rate_limit"`
}

// Relay 会话管道配置
type Relay struct {
	IdentityTimeout time.Duration `mapstructure:"identity_timeout" yaml:"identity_timeout"`
	AudioQueueSize  int           `mapstructure:"audio_queue_size" yaml:"audio_queue_size"`
	SendBufferSize  int           `mapstructure:"send_buffer_size" yaml:"send_buffer_size"`
	CleanupTimeout  time.Duration `mapstructure:"cleanup_timeout" yaml:"cleanup_timeout"`
}

// Upstream 实时模型配置
type Upstream struct {
	Model              string        `mapstructure:"model" yaml:"model"`
	Voice              string        `mapstructure:"voice" yaml:"voice"`
	Project            string        `mapstructure:"project" yaml:"project"`
	Location           string        `mapstructure:"location" yaml:"location"`
	APIKey             string        `mapstructure:"api_key" yaml:"api_key"`
	CredentialsFile    string        `mapstructure:"credentials_file" yaml:"credentials_file"`
	Scopes             []string      `mapstructure:"scopes" yaml:"scopes"`
	AudioMIMEType      string        `mapstructure:"audio_mime_type" yaml:"audio_mime_type"`
	RefreshTimeout     time.Duration `mapstructure:"refresh_timeout" yaml:"refresh_timeout"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	TokenRefreshBuffer time.Duration `mapstructure:"token_refresh_buffer" yaml:"token_refresh_buffer"`
}

// Backend 后端 HTTP 接口配置
type Backend struct {
	BaseURL          string                   `mapstructure:"base_url" yaml:"base_url"`
	DiscoveryService string                   `mapstructure:"discovery_service" yaml:"discovery_service"` // 非空时通过 Consul 解析
	Timeout          time.Duration            `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries       int                      `mapstructure:"max_retries" yaml:"max_retries"`
	Breaker          httpclient.BreakerConfig `mapstructure:"breaker" yaml:"breaker"`
	CacheTTL         time.Duration            `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	Endpoints        Endpoints                `mapstructure:"endpoints" yaml:"endpoints"`
}

// Endpoints 后端路径，{uid} 会被替换
type Endpoints struct {
	User           string `mapstructure:"user" yaml:"user"`
	RecentContext  string `mapstructure:"recent_context" yaml:"recent_context"`
	WeeklyArchives string `mapstructure:"weekly_archives" yaml:"weekly_archives"`
	UserProfile    string `mapstructure:"user_profile" yaml:"user_profile"`
	SaveName       string `mapstructure:"save_name" yaml:"save_name"`
	GetSummary     string `mapstructure:"get_summary" yaml:"get_summary"`
	SaveSummary    string `mapstructure:"save_summary" yaml:"save_summary"`
	SaveExercises  string `mapstructure:"save_exercises" yaml:"save_exercises"`
}

// Personalization 个性化配置
type Personalization struct {
	SystemInstructionFile string        `mapstructure:"system_instruction_file" yaml:"system_instruction_file"`
	Timeout               time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserTimeout           time.Duration `mapstructure:"user_timeout" yaml:"user_timeout"`
	RecentTimeout         time.Duration `mapstructure:"recent_timeout" yaml:"recent_timeout"`
	ArchivesTimeout       time.Duration `mapstructure:"archives_timeout" yaml:"archives_timeout"`
	ProfileTimeout        time.Duration `mapstructure:"profile_timeout" yaml:"profile_timeout"`
	ArchiveLimit          int           `mapstructure:"archive_limit" yaml:"archive_limit"`
	QuestionModel         string        `mapstructure:"question_model" yaml:"question_model"`
	QuestionTimeout       time.Duration `mapstructure:"question_timeout" yaml:"question_timeout"`
	QuestionTemperature   float32       `mapstructure:"question_temperature" yaml:"question_temperature"`
}

// Summary 总结配置
type Summary struct {
	Model       string  `mapstructure:"model" yaml:"model"` // 为空时由实时模型推导
	Temperature float32 `mapstructure:"temperature" yaml:"temperature"`
}

// Exercises 推荐动作旁路
type Exercises struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Redis 上下文缓存，Addr 为空时关闭
type Redis struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	Password  string `mapstructure:"password" yaml:"password"`
	DB        int    `mapstructure:"db" yaml:"db"`
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// Kafka 会话事件，Brokers 为空时关闭
type Kafka struct {
	Brokers  []string `mapstructure:"brokers" yaml:"brokers"`
	Topic    string   `mapstructure:"topic" yaml:"topic"`
	ClientID string   `mapstructure:"client_id" yaml:"client_id"`
}

// PostHog 产品分析，APIKey 为空时关闭
type PostHog struct {
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// Auth 握手鉴权，JWTSecret 为空时关闭
type Auth struct {
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Issuer    string `mapstructure:"issuer" yaml:"issuer"`
}

// Consul 服务注册
type Consul struct {
	Enabled                bool   `mapstructure:"enabled" yaml:"enabled"`
	discovery.ConsulConfig `mapstructure:",squash" yaml:",inline"`
	ServiceAddress         string `mapstructure:"service_address" yaml:"service_address"`
	ServicePort            int    `mapstructure:"service_port" yaml:"service_port"`
}

// Defaults 默认配置
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.addr":              ":8765",
		"server.mode":              "release",
		"server.shutdown_timeout":  "30s",
		"server.allowed_origins":   []string{"*"},
		"server.ping_interval":     "30s",
		"server.pong_wait":         "60s",
		"server.write_wait":        "10s",
		"server.max_message_bytes": 4 << 20,
		"server.enable_debug":      true,

		"server.handshake_rate_limit": 30,

		"log.level":  "info",
		"log.format": "json",
		"log.output": "stdout",

		"tracing.enabled":       false,
		"tracing.service_name":  ServiceName,
		"tracing.protocol":      "grpc",
		"tracing.insecure":      true,
		"tracing.sampling_rate": 1.0,

		"relay.identity_timeout": "30s",
		"relay.audio_queue_size": 512,
		"relay.send_buffer_size": 256,
		"relay.cleanup_timeout":  "60s",

		"upstream.model":                "gemini-live-2.5-flash-preview-native-audio",
		"upstream.voice":                "Puck",
		"upstream.project":              "gen-ai-hack2skill-470416",
		"upstream.location":             "us-central1",
		"upstream.api_key":              "",
		"upstream.credentials_file":     "service-account.json",
		"upstream.scopes":               []string{"https://www.googleapis.com/auth/cloud-platform"},
		"upstream.audio_mime_type":      "audio/pcm;rate=16000",
		"upstream.refresh_timeout":      "15s",
		"upstream.connect_timeout":      "30s",
		"upstream.token_refresh_buffer": "5m",

		"backend.base_url":                  "http://localhost:3000",
		"backend.discovery_service":         "",
		"backend.timeout":                   "12s",
		"backend.max_retries":               1,
		"backend.cache_ttl":                 "60s",
		"backend.endpoints.user":            "/user/{uid}",
		"backend.endpoints.recent_context":  "/get-recent-context",
		"backend.endpoints.weekly_archives": "/get-weekly-archives/{uid}",
		"backend.endpoints.user_profile":    "/user-profile/{uid}",
		"backend.endpoints.save_name":       "/save-name",
		"backend.endpoints.get_summary":     "/get-summary/{uid}",
		"backend.endpoints.save_summary":    "/save-summary",
		"backend.endpoints.save_exercises":  "/save-exercises",

		"personalization.system_instruction_file": "configs/system_instruction.txt",
		"personalization.timeout":                 "25s",
		"personalization.user_timeout":            "8s",
		"personalization.recent_timeout":          "10s",
		"personalization.archives_timeout":        "10s",
		"personalization.profile_timeout":         "8s",
		"personalization.archive_limit":           4,
		"personalization.question_model":          "",
		"personalization.question_timeout":        "10s",
		"personalization.question_temperature":    0.7,

		"summary.model":       "",
		"summary.temperature": 0.3,

		"exercises.enabled": true,

		"redis.addr":       "",
		"redis.password":   "",
		"redis.db":         0,
		"redis.key_prefix": ServiceName,

		"kafka.brokers":   []string{},
		"kafka.topic":     "live-relay.sessions",
		"kafka.client_id": ServiceName,

		"posthog.api_key":  "",
		"posthog.endpoint": "https://app.posthog.com",

		"auth.jwt_secret": "",
		"auth.issuer":     ServiceName,

		"consul.enabled":         false,
		"consul.address":         "localhost:8500",
		"consul.scheme":          "http",
		"consul.service_address": "",
		"consul.service_port":    8765,
	}
}

// Load 加载配置，返回配置管理器以便监听变更和关闭
func Load(path string) (*Bootstrap, *config.Manager, error) {
	m := config.NewManager(EnvPrefix)
	m.SetDefaults(Defaults())
	if err := m.LoadConfig(path, ServiceName); err != nil {
		return nil, nil, err
	}

	var bc Bootstrap
	if err := m.Unmarshal(&bc); err != nil {
		return nil, nil, err
	}
	return &bc, m, nil
}
