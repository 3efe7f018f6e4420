package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/hashicorp/consul/api"
)

// ErrNoInstance 没有健康实例
var ErrNoInstance = errors.New("discovery: no healthy instance")

// ConsulConfig Consul 配置
type ConsulConfig struct {
	Address string   `mapstructure:"address" yaml:"address"` // 例如 localhost:8500
	Scheme  string   `mapstructure:"scheme" yaml:"scheme"`   // http 或 https
	Token   string   `mapstructure:"token" yaml:"token"`
	Tags    []string `mapstructure:"tags" yaml:"tags"`
}

// ServiceRegistration 服务注册信息
type ServiceRegistration struct {
	ID                  string
	Name                string
	Address             string
	Port                int
	Tags                []string
	Meta                map[string]string
	HealthCheckPath     string // HTTP 健康检查路径
	HealthCheckInterval string // 例如 "10s"
	HealthCheckTimeout  string
	DeregisterAfter     string // 例如 "1m"
}

// ConsulRegistry Consul 服务注册与发现
type ConsulRegistry struct {
	client *api.Client
	config ConsulConfig
}

// NewConsulRegistry 创建 Consul 客户端
func NewConsulRegistry(config ConsulConfig) (*ConsulRegistry, error) {
	consulConfig := api.DefaultConfig()
	if config.Address != "" {
		consulConfig.Address = config.Address
	}
	if config.Scheme != "" {
		consulConfig.Scheme = config.Scheme
	}
	if config.Token != "" {
		consulConfig.Token = config.Token
	}

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return &ConsulRegistry{client: client, config: config}, nil
}

// Register 注册服务
func (r *ConsulRegistry) Register(reg ServiceRegistration) error {
	registration := &api.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    append(append([]string{}, r.config.Tags...), reg.Tags...),
		Meta:    reg.Meta,
	}

	if reg.HealthCheckPath != "" {
		registration.Check = &api.AgentServiceCheck{
			HTTP:                           "http://" + net.JoinHostPort(reg.Address, strconv.Itoa(reg.Port)) + reg.HealthCheckPath,
			Interval:                       reg.HealthCheckInterval,
			Timeout:                        reg.HealthCheckTimeout,
			DeregisterCriticalServiceAfter: reg.DeregisterAfter,
		}
	}

	if err := r.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	return nil
}

// Deregister 注销服务
func (r *ConsulRegistry) Deregister(serviceID string) error {
	if err := r.client.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}

// ResolveURL 返回第一个健康实例的 http 地址
func (r *ConsulRegistry) ResolveURL(serviceName string) (string, error) {
	services, _, err := r.client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("failed to discover service: %w", err)
	}
	for _, entry := range services {
		if entry.Service == nil {
			continue
		}
		addr := entry.Service.Address
		if addr == "" && entry.Node != nil {
			addr = entry.Node.Address
		}
		if addr == "" {
			continue
		}
		return "http://" + net.JoinHostPort(addr, strconv.Itoa(entry.Service.Port)), nil
	}
	return "", fmt.Errorf("%s: %w", serviceName, ErrNoInstance)
}
