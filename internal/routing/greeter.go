package routing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgard/vipdesk/internal/gemini"
)

// Greeter composes the message sent to a freshly tagged VIP client.
type Greeter interface {
	Greet(ctx context.Context, name string) string
}

// TemplateGreeter formats name into a fixed template with a single %s.
type TemplateGreeter struct {
	Format string
}

func (g TemplateGreeter) Greet(_ context.Context, name string) string {
	return fmt.Sprintf(g.Format, name)
}

// aiGenerationTimeout bounds a single Gemini call.
const aiGenerationTimeout = 20 * time.Second

// AIGreeter personalises the template greeting with Gemini and falls back to
// the template on any failure.
type AIGreeter struct {
	client   gemini.Client
	fallback TemplateGreeter
	log      *slog.Logger
}

func NewAIGreeter(client gemini.Client, fallback TemplateGreeter, log *slog.Logger) *AIGreeter {
	return &AIGreeter{
		client:   client,
		fallback: fallback,
		log:      log.With("component", "ai_greeter"),
	}
}

func (g *AIGreeter) Greet(ctx context.Context, name string) string {
	base := g.fallback.Greet(ctx, name)

	genCtx, cancel := context.WithTimeout(ctx, aiGenerationTimeout)
	defer cancel()

	text, err := g.client.GenerateGreeting(genCtx, name, base)
	if err != nil {
		g.log.WarnContext(ctx, "Falling back to template greeting", "name", name, "error", err)
		return base
	}
	return text
}
