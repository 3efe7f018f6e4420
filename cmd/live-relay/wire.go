//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/biz"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/conf"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/data"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/infra"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/infra/events"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/relay"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/server"
	"github.com/ankurMishraDev/GenX-AI/pkg/discovery"
)

// wireApp init kratos application.
func wireApp(*conf.Bootstrap, systemInstruction, *discovery.ConsulRegistry, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		optionSet,
		data.ProviderSet,
		biz.ProviderSet,
		infra.ProviderSet,
		relay.ProviderSet,
		server.ProviderSet,

		// relay 依赖的接口
		wire.Bind(new(relay.Personalizer), new(*biz.Personalizer)),
		wire.Bind(new(relay.CredentialSource), new(*infra.CredentialProvider)),
		wire.Bind(new(relay.Connector), new(*infra.LiveConnector)),
		wire.Bind(new(relay.SummaryRunner), new(*biz.Summarizer)),
		wire.Bind(new(relay.ExerciseScanner), new(*biz.ExerciseScanner)),
		wire.Bind(new(relay.EventPublisher), new(*events.Publisher)),

		newApp,
	))
}
