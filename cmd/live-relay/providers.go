package main

import (
	"github.com/google/wire"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/biz"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/conf"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/infra"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/infra/events"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/relay"
)

// systemInstruction 从文件加载的基础系统提示
type systemInstruction string

// optionSet 把配置映射为各层的参数
var optionSet = wire.NewSet(
	serverConf,
	authConf,
	backendConf,
	redisConf,
	credentialOptions,
	clientOptions,
	liveOptions,
	textOptions,
	eventOptions,
	fetchOptions,
	questionOptions,
	personalizerOptions,
	summarizerOptions,
	exerciseOptions,
	relayOptions,
)

func serverConf(bc *conf.Bootstrap) *conf.Server   { return &bc.Server }
func authConf(bc *conf.Bootstrap) *conf.Auth       { return &bc.Auth }
func backendConf(bc *conf.Bootstrap) *conf.Backend { return &bc.Backend }
func redisConf(bc *conf.Bootstrap) *conf.Redis     { return &bc.Redis }

func credentialOptions(bc *conf.Bootstrap) infra.CredentialOptions {
	return infra.CredentialOptions{
		APIKey:          bc.Upstream.APIKey,
		CredentialsFile: bc.Upstream.CredentialsFile,
		Scopes:          bc.Upstream.Scopes,
		RefreshTimeout:  bc.Upstream.RefreshTimeout,
		RefreshBuffer:   bc.Upstream.TokenRefreshBuffer,
	}
}

func clientOptions(bc *conf.Bootstrap) infra.ClientOptions {
	return infra.ClientOptions{
		Project:  bc.Upstream.Project,
		Location: bc.Upstream.Location,
	}
}

func liveOptions(bc *conf.Bootstrap) infra.LiveOptions {
	return infra.LiveOptions{
		Model:          bc.Upstream.Model,
		Voice:          bc.Upstream.Voice,
		AudioMIMEType:  bc.Upstream.AudioMIMEType,
		ConnectTimeout: bc.Upstream.ConnectTimeout,
	}
}

// textOptions 文本模型默认由实时模型推导
func textOptions(bc *conf.Bootstrap) infra.TextOptions {
	return infra.TextOptions{DefaultModel: biz.PickTextModel(bc.Upstream.Model)}
}

func eventOptions(bc *conf.Bootstrap) infra.EventOptions {
	return infra.EventOptions{
		Kafka: events.KafkaConfig{
			Brokers:  bc.Kafka.Brokers,
			Topic:    bc.Kafka.Topic,
			ClientID: bc.Kafka.ClientID,
		},
		PostHogAPIKey:   bc.PostHog.APIKey,
		PostHogEndpoint: bc.PostHog.Endpoint,
	}
}

func fetchOptions(bc *conf.Bootstrap) biz.FetchOptions {
	p := bc.Personalization
	return biz.FetchOptions{
		UserTimeout:     p.UserTimeout,
		RecentTimeout:   p.RecentTimeout,
		ArchivesTimeout: p.ArchivesTimeout,
		ProfileTimeout:  p.ProfileTimeout,
		ArchiveLimit:    p.ArchiveLimit,
	}
}

func questionOptions(bc *conf.Bootstrap) biz.QuestionOptions {
	return biz.QuestionOptions{
		Model:       bc.Personalization.QuestionModel,
		Temperature: bc.Personalization.QuestionTemperature,
		Timeout:     bc.Personalization.QuestionTimeout,
	}
}

func personalizerOptions(bc *conf.Bootstrap, instruction systemInstruction) biz.PersonalizerOptions {
	return biz.PersonalizerOptions{
		BaseInstruction: string(instruction),
		Timeout:         bc.Personalization.Timeout,
	}
}

func summarizerOptions(bc *conf.Bootstrap) biz.SummarizerOptions {
	model := bc.Summary.Model
	if model == "" {
		model = biz.PickTextModel(bc.Upstream.Model)
	}
	return biz.SummarizerOptions{
		Model:       model,
		Temperature: bc.Summary.Temperature,
	}
}

func exerciseOptions(bc *conf.Bootstrap) biz.ExerciseOptions {
	return biz.ExerciseOptions{Enabled: bc.Exercises.Enabled}
}

func relayOptions(bc *conf.Bootstrap) relay.Options {
	return relay.Options{
		IdentityTimeout: bc.Relay.IdentityTimeout,
		AudioQueueSize:  bc.Relay.AudioQueueSize,
		CleanupTimeout:  bc.Relay.CleanupTimeout,
		Conn: relay.ConnOptions{
			WriteWait:       bc.Server.WriteWait,
			PongWait:        bc.Server.PongWait,
			PingInterval:    bc.Server.PingInterval,
			MaxMessageBytes: bc.Server.MaxMessageBytes,
			SendBuffer:      bc.Relay.SendBufferSize,
		},
	}
}
