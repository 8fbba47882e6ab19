package registry

import (
	"log/slog"
	"net/http"

	"github.com/weftworks/weft/pkg/credentials"
	"github.com/weftworks/weft/pkg/nodes/conditional"
	"github.com/weftworks/weft/pkg/nodes/delay"
	"github.com/weftworks/weft/pkg/nodes/email"
	"github.com/weftworks/weft/pkg/nodes/gptprompt"
	"github.com/weftworks/weft/pkg/nodes/httprequest"
	"github.com/weftworks/weft/pkg/nodes/setvariable"
	"github.com/weftworks/weft/pkg/nodes/trigger"
)

// Deps carries the collaborators the built-in handlers need. Zero values
// get sensible defaults: env-based credentials, a simulated mail sender
// and a default HTTP client.
type Deps struct {
	Logger        *slog.Logger
	Credentials   credentials.Resolver
	Mailer        email.Sender
	HTTPClient    *http.Client
	OpenAIBaseURL string
}

// NewDefaultRegistry builds a registry with all built-in node handlers.
func NewDefaultRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if deps.Credentials == nil {
		deps.Credentials = credentials.NewEnvResolver()
	}

	if deps.Mailer == nil {
		deps.Mailer = email.NewSimulatedSender(deps.Logger)
	}

	registry := NewRegistry(deps.Logger)

	registry.Register(trigger.NewManualTrigger())
	registry.Register(trigger.NewWebhookTrigger())
	registry.Register(trigger.NewScheduleTrigger())
	registry.Register(httprequest.NewHandler(deps.HTTPClient))
	registry.Register(gptprompt.NewHandler(deps.Credentials, deps.OpenAIBaseURL))
	registry.Register(email.NewHandler(deps.Mailer))
	registry.Register(conditional.NewHandler())
	registry.Register(delay.NewHandler())
	registry.Register(setvariable.NewHandler())

	return registry
}
