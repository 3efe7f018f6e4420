package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/spf13/viper"
)

// ConfigMode 配置模式
type ConfigMode string

const (
	// ModeLocal 本地配置模式
	ModeLocal ConfigMode = "local"
	// ModeNacos Nacos配置中心模式
	ModeNacos ConfigMode = "nacos"
)

// NacosConfig Nacos配置
type NacosConfig struct {
	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
	ServerPort uint64 `mapstructure:"server_port" yaml:"server_port"`
	Namespace  string `mapstructure:"namespace" yaml:"namespace"`
	Group      string `mapstructure:"group" yaml:"group"`
	DataID     string `mapstructure:"data_id" yaml:"data_id"`
	Username   string `mapstructure:"username" yaml:"username"`
	Password   string `mapstructure:"password" yaml:"password"`
	LogDir     string `mapstructure:"log_dir" yaml:"log_dir"`
	CacheDir   string `mapstructure:"cache_dir" yaml:"cache_dir"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
	TimeoutMs  uint64 `mapstructure:"timeout_ms" yaml:"timeout_ms"`
}

// Manager 配置管理器
type Manager struct {
	mode        ConfigMode
	nacosClient config_client.IConfigClient
	nacosConfig *NacosConfig
	viper       *viper.Viper

	mu        sync.Mutex
	listeners []func()
}

// NewManager 创建配置管理器
// envPrefix 非空时环境变量覆盖配置项，例如 LIVE_RELAY_SERVER_ADDR 覆盖 server.addr
func NewManager(envPrefix string) *Manager {
	v := viper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	return &Manager{viper: v}
}

// SetDefaults 设置默认值
func (m *Manager) SetDefaults(defaults map[string]interface{}) {
	for key, value := range defaults {
		m.viper.SetDefault(key, value)
	}
}

// LoadConfig 加载配置
// configPath: 本地配置文件路径（本地模式下为空时只使用默认值和环境变量）
// serviceName: 服务名称（用作Nacos DataID的前缀）
func (m *Manager) LoadConfig(configPath, serviceName string) error {
	mode := GetEnv("CONFIG_MODE", string(ModeLocal))
	m.mode = ConfigMode(strings.ToLower(mode))

	switch m.mode {
	case ModeNacos:
		return m.loadFromNacos(configPath, serviceName)
	case ModeLocal:
		return m.loadFromLocal(configPath)
	default:
		return fmt.Errorf("unsupported config mode: %s", mode)
	}
}

// loadFromLocal 从本地文件加载配置
func (m *Manager) loadFromLocal(configPath string) error {
	if configPath == "" {
		return nil
	}
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config file not found: %s", configPath)
	}

	m.viper.SetConfigFile(configPath)
	if err := m.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read local config failed: %w", err)
	}
	return nil
}

// loadFromNacos 从Nacos配置中心加载配置
func (m *Manager) loadFromNacos(configPath, serviceName string) error {
	// 1. 先从本地文件读取Nacos连接配置
	localViper := viper.New()
	localViper.SetConfigFile(configPath)
	if err := localViper.ReadInConfig(); err != nil {
		return fmt.Errorf("read nacos connection config failed: %w", err)
	}

	m.nacosConfig = &NacosConfig{}
	if err := localViper.UnmarshalKey("nacos", m.nacosConfig); err != nil {
		return fmt.Errorf("unmarshal nacos config failed: %w", err)
	}

	// 环境变量覆盖
	m.nacosConfig.ServerAddr = GetEnv("NACOS_SERVER_ADDR", m.nacosConfig.ServerAddr)
	m.nacosConfig.Namespace = GetEnv("NACOS_NAMESPACE", m.nacosConfig.Namespace)
	m.nacosConfig.Group = GetEnv("NACOS_GROUP", m.nacosConfig.Group)
	m.nacosConfig.DataID = GetEnv("NACOS_DATA_ID", m.nacosConfig.DataID)
	m.nacosConfig.Username = GetEnv("NACOS_USERNAME", m.nacosConfig.Username)
	m.nacosConfig.Password = GetEnv("NACOS_PASSWORD", m.nacosConfig.Password)
	applyNacosDefaults(m.nacosConfig, serviceName)

	// 2. 创建Nacos客户端
	serverConfigs := []constant.ServerConfig{
		*constant.NewServerConfig(
			m.nacosConfig.ServerAddr,
			m.nacosConfig.ServerPort,
			constant.WithContextPath("/nacos"),
		),
	}
	clientConfig := *constant.NewClientConfig(
		constant.WithNamespaceId(m.nacosConfig.Namespace),
		constant.WithTimeoutMs(m.nacosConfig.TimeoutMs),
		constant.WithNotLoadCacheAtStart(true),
		constant.WithLogDir(m.nacosConfig.LogDir),
		constant.WithCacheDir(m.nacosConfig.CacheDir),
		constant.WithLogLevel(m.nacosConfig.LogLevel),
		constant.WithUsername(m.nacosConfig.Username),
		constant.WithPassword(m.nacosConfig.Password),
	)

	configClient, err := clients.NewConfigClient(vo.NacosClientParam{
		ClientConfig:  &clientConfig,
		ServerConfigs: serverConfigs,
	})
	if err != nil {
		return fmt.Errorf("create nacos client failed: %w", err)
	}
	m.nacosClient = configClient

	// 3. 拉取配置并加载到viper
	content, err := configClient.GetConfig(vo.ConfigParam{
		DataId: m.nacosConfig.DataID,
		Group:  m.nacosConfig.Group,
	})
	if err != nil {
		return fmt.Errorf("get config from nacos failed: %w", err)
	}
	m.viper.SetConfigType("yaml")
	if err := m.viper.ReadConfig(strings.NewReader(content)); err != nil {
		return fmt.Errorf("parse nacos config failed: %w", err)
	}

	// 4. 监听配置变更
	return m.nacosClient.ListenConfig(vo.ConfigParam{
		DataId: m.nacosConfig.DataID,
		Group:  m.nacosConfig.Group,
		OnChange: func(namespace, group, dataId, data string) {
			m.viper.SetConfigType("yaml")
			if err := m.viper.ReadConfig(strings.NewReader(data)); err != nil {
				return
			}
			m.notify()
		},
	})
}

// applyNacosDefaults 设置Nacos默认值
func applyNacosDefaults(cfg *NacosConfig, serviceName string) {
	if cfg.DataID == "" {
		cfg.DataID = serviceName + ".yaml"
	}
	if cfg.ServerPort == 0 {
		cfg.ServerPort = 8848
	}
	if cfg.Group == "" {
		cfg.Group = "DEFAULT_GROUP"
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "/tmp/nacos/log"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "/tmp/nacos/cache"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.TimeoutMs == 0 {
		cfg.TimeoutMs = 5000
	}
}

// OnChange 注册配置变更回调（仅Nacos模式触发）
func (m *Manager) OnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) notify() {
	m.mu.Lock()
	listeners := append([]func(){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Unmarshal 解析配置到结构体
func (m *Manager) Unmarshal(rawVal interface{}) error {
	return m.viper.Unmarshal(rawVal)
}

// UnmarshalKey 解析指定key的配置到结构体
func (m *Manager) UnmarshalKey(key string, rawVal interface{}) error {
	return m.viper.UnmarshalKey(key, rawVal)
}

// GetString 获取字符串配置
func (m *Manager) GetString(key string) string {
	return m.viper.GetString(key)
}

// GetMode 获取配置模式
func (m *Manager) GetMode() ConfigMode {
	return m.mode
}

// AllSettings 返回合并后的全部配置
func (m *Manager) AllSettings() map[string]interface{} {
	return m.viper.AllSettings()
}

// Close 关闭配置管理器
func (m *Manager) Close() error {
	if m.nacosClient != nil {
		_ = m.nacosClient.CancelListenConfig(vo.ConfigParam{
			DataId: m.nacosConfig.DataID,
			Group:  m.nacosConfig.Group,
		})
	}
	return nil
}
