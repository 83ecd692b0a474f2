package passstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/config"
)

type Factory func(ctx context.Context, cfg config.Config, logger *slog.Logger) (Store, error)

var reg = map[string]Factory{}

// Register makes a driver available under name. Drivers call it from init.
func Register(name string, f Factory) {
	reg[name] = f
}

func New(ctx context.Context, name string, cfg config.Config, logger *slog.Logger) (Store, error) {
	if f, ok := reg[name]; ok {
		return f(ctx, cfg, logger)
	}
	return nil, fmt.Errorf("unknown store driver %q (registered: %v)", name, Drivers())
}

func Drivers() []string {
	out := make([]string, 0, len(reg))
	for k := range reg {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
