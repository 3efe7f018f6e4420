package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/conf"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/infra"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/server"
	"github.com/ankurMishraDev/GenX-AI/pkg/auth"
	"github.com/ankurMishraDev/GenX-AI/pkg/config"
	"github.com/ankurMishraDev/GenX-AI/pkg/discovery"
	"github.com/ankurMishraDev/GenX-AI/pkg/logger"
	"github.com/ankurMishraDev/GenX-AI/pkg/observability"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	Name     string = conf.ServiceName
	Version  string = "v1.0.0"
	flagconf string

	id, _ = os.Hostname()
)

const defaultConfPath = "configs/live-relay.yaml"

var (
	rootCmd = &cobra.Command{
		Use:           "live-relay",
		Short:         "Realtime voice relay between browser clients and Gemini Live",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd)
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the merged configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, m, err := conf.Load(confPath(cmd))
			if err != nil {
				return err
			}
			defer m.Close()

			out, err := yaml.Marshal(redact(m.AllSettings()))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	tokenTTL time.Duration
	tokenCmd = &cobra.Command{
		Use:   "token <uid>",
		Short: "Issue a handshake token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bc, m, err := conf.Load(confPath(cmd))
			if err != nil {
				return err
			}
			defer m.Close()

			if bc.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			token, err := auth.NewJWTManager(bc.Auth.JWTSecret, bc.Auth.Issuer, tokenTTL).GenerateToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of live-relay",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", Name, Version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagconf, "conf", config.GetEnv("CONFIG_PATH", defaultConfPath), "config path")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(serveCmd, configCmd, tokenCmd, versionCmd)
}

// confPath 默认路径不存在时只使用默认值和环境变量
func confPath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("conf") {
		return flagconf
	}
	if _, err := os.Stat(flagconf); err != nil {
		return ""
	}
	return flagconf
}

var secretKeys = []string{"api_key", "jwt_secret", "password", "token"}

// redact 递归隐藏敏感配置项
func redact(settings map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(settings))
	for k, v := range settings {
		switch val := v.(type) {
		case map[string]interface{}:
			out[k] = redact(val)
		default:
			if isSecret(k) && fmt.Sprint(v) != "" {
				out[k] = "******"
			} else {
				out[k] = v
			}
		}
	}
	return out
}

func isSecret(key string) bool {
	key = strings.ToLower(key)
	for _, s := range secretKeys {
		if key == s || strings.HasSuffix(key, "_"+s) {
			return true
		}
	}
	return false
}

func newApp(bc *conf.Bootstrap, logger log.Logger, hs *server.HTTPServer, consul *discovery.ConsulRegistry) *kratos.App {
	opts := []kratos.Option{
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
		kratos.StopTimeout(bc.Server.ShutdownTimeout),
	}
	if consul != nil {
		reg := serviceRegistration(bc)
		helper := log.NewHelper(logger)
		opts = append(opts,
			kratos.AfterStart(func(context.Context) error {
				helper.Infow("msg", "registering with consul", "id", reg.ID)
				return consul.Register(reg)
			}),
			kratos.BeforeStop(func(context.Context) error {
				if err := consul.Deregister(reg.ID); err != nil {
					helper.Warnf("consul deregister: %v", err)
				}
				return nil
			}),
		)
	}
	return kratos.New(opts...)
}

// serviceRegistration Consul 注册信息
func serviceRegistration(bc *conf.Bootstrap) discovery.ServiceRegistration {
	return discovery.ServiceRegistration{
		ID:                  Name + "-" + id,
		Name:                Name,
		Address:             bc.Consul.ServiceAddress,
		Port:                bc.Consul.ServicePort,
		Meta:                map[string]string{"version": Version},
		HealthCheckPath:     "/health",
		HealthCheckInterval: "10s",
		HealthCheckTimeout:  "3s",
		DeregisterAfter:     "1m",
	}
}

func serve(cmd *cobra.Command) error {
	bc, manager, err := conf.Load(confPath(cmd))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer manager.Close()

	bc.Tracing.ServiceVersion = Version
	logger, flush, err := logger.New(bc.Log, logger.ServiceInfo{ID: id, Name: Name, Version: Version})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer flush()
	log.SetLogger(logger)
	helper := log.NewHelper(logger)

	shutdownTracing, err := observability.InitTracing(context.Background(), bc.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			helper.Warnf("shutdown tracing: %v", err)
		}
	}()

	// 运行中的会话不会热加载配置
	manager.OnChange(func() {
		helper.Warn("configuration changed, restart live-relay to apply it")
	})

	instruction, err := infra.LoadInstruction(bc.Personalization.SystemInstructionFile)
	if err != nil {
		helper.Warnf("system instruction: %v, using default", err)
	}

	var consul *discovery.ConsulRegistry
	if bc.Consul.Enabled {
		consul, err = discovery.NewConsulRegistry(bc.Consul.ConsulConfig)
		if err != nil {
			return err
		}
		if bc.Backend.DiscoveryService != "" {
			url, err := consul.ResolveURL(bc.Backend.DiscoveryService)
			if err != nil {
				return fmt.Errorf("resolve backend %s: %w", bc.Backend.DiscoveryService, err)
			}
			bc.Backend.BaseURL = url
		}
	}

	app, cleanup, err := wireApp(bc, systemInstruction(instruction), consul, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	helper.Infow("msg", "service starting", "name", Name, "version", Version, "addr", bc.Server.Addr)
	return app.Run()
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

