package server

import (
	"go.uber.org/dig"

	"github.com/vaultkv/vaultkv/conn"
	"github.com/vaultkv/vaultkv/config"
	"github.com/vaultkv/vaultkv/executor"
	"github.com/vaultkv/vaultkv/metrics"
)

// container wires every top-level component the way the teacher's own
// server/factory.go wires its persistence/store/executor/handler chain,
// substituting this rewrite's executor+conn+metrics chain.
var container = dig.New()

func init() {
	_ = container.Provide(provideExecutor)
	_ = container.Provide(provideConnConfig)
	_ = container.Provide(provideMetrics)
	_ = container.Provide(New)
}

func provideExecutor(cfg *config.GlobalConfig, met *metrics.Collector) *executor.Executor {
	return executor.New(cfg.Engine.TickInterval(), met)
}

func provideConnConfig(cfg *config.GlobalConfig) conn.Config {
	return conn.Config{
		ReadBufferCapBytes:        cfg.Engine.ReadBufferCapBytes,
		WriteBufferHighWaterBytes: cfg.Engine.WriteBufferHighWaterBytes,
		WriteBufferLowWaterBytes:  cfg.Engine.WriteBufferLowWaterBytes,
	}
}

func provideMetrics(cfg *config.GlobalConfig) *metrics.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New()
}

// Construct builds a Server from cfg via the dig container, resolving the
// executor, connection tuning, and optional metrics collector along the
// way.
func Construct(cfg *config.GlobalConfig) (*Server, error) {
	if err := container.Provide(func() *config.GlobalConfig { return cfg }); err != nil {
		return nil, err
	}

	var s *Server
	if err := container.Invoke(func(_s *Server) {
		s = _s
	}); err != nil {
		return nil, err
	}
	return s, nil
}
