package simulator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"aquaview.dev/monitor/pkg/metrics"
	"aquaview.dev/monitor/pkg/mq"
)

// ServerConfig holds the configuration for the simulator server.
type ServerConfig struct {
	// Logger is the structured logger
	Logger *slog.Logger
	// RabbitMQURL is the connection string for RabbitMQ
	RabbitMQURL string
	// QueueName is the name of the queue to publish readings to
	QueueName string
	// Interval is the time between readings per station
	Interval time.Duration
	// StationCount is the number of concurrent simulated stations
	StationCount int
	// Metrics is the optional Prometheus metrics collector
	Metrics *metrics.SimulatorMetrics
	// MQMetrics is the optional Prometheus metrics collector for MQ operations
	MQMetrics *metrics.MQMetrics
}

// Server manages the simulated station fleet.
type Server struct {
	logger     *slog.Logger
	config     *ServerConfig
	publishers []*Publisher
	clients    []*mq.Client
	wg         sync.WaitGroup
	metrics    *metrics.SimulatorMetrics
}

var (
	errInvalidStationCount = errors.New("station count must be greater than 0")
	errInvalidInterval     = errors.New("interval must be greater than 0")
	errLoggerRequired      = errors.New("logger is required")
)

// NewServer creates a new simulator server with the given configuration.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.StationCount <= 0 {
		return nil, errInvalidStationCount
	}

	if cfg.Interval <= 0 {
		return nil, errInvalidInterval
	}

	if cfg.Logger == nil {
		return nil, errLoggerRequired
	}

	s := &Server{
		config:     cfg,
		publishers: make([]*Publisher, 0, cfg.StationCount),
		clients:    make([]*mq.Client, 0, cfg.StationCount),
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}

	for i := 0; i < cfg.StationCount; i++ {
		client := mq.New(cfg.QueueName, cfg.RabbitMQURL, cfg.Logger.With(
			slog.String("component", "mq-client"),
			slog.Int("station_id", i),
		))

		if cfg.MQMetrics != nil {
			client.SetMetrics(cfg.MQMetrics)
		}

		publisher := NewPublisher(client)

		if cfg.Metrics != nil {
			publisher.SetMetrics(cfg.Metrics)
		}

		s.clients = append(s.clients, client)
		s.publishers = append(s.publishers, publisher)

		s.logger.Info("created simulated station",
			"station_id", i,
			"station", publisher.Station.StationID,
			"location", publisher.Station.Location,
			"queue", cfg.QueueName,
		)
	}

	return s, nil
}

// Run starts all stations and blocks until shutdown signal is received.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	for i, publisher := range s.publishers {
		s.wg.Add(1)
		go s.runStation(ctx, i, publisher)
	}

	s.logger.Info("simulator started",
		"station_count", len(s.publishers),
		"interval", s.config.Interval,
	)

	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
		s.logger.Info("context canceled, shutting down")
	}

	s.logger.Info("waiting for stations to shut down...")
	s.wg.Wait()

	s.logger.Info("closing MQ clients...")
	s.closeClients()

	s.logger.Info("simulator stopped")
	return nil
}

// runStation publishes readings for one station at the configured interval.
func (s *Server) runStation(ctx context.Context, id int, publisher *Publisher) {
	defer s.wg.Done()

	if s.metrics != nil {
		s.metrics.ActiveStations.Inc()
		defer s.metrics.ActiveStations.Dec()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	stationLogger := s.logger.With(
		slog.Int("station_id", id),
		slog.String("station", publisher.Station.StationID),
	)
	stationLogger.Info("station started")

	for {
		select {
		case <-ctx.Done():
			stationLogger.Info("station shutting down")
			return

		case <-ticker.C:
			if err := publisher.PublishReading(ctx); err != nil {
				stationLogger.Error("failed to publish reading",
					"error", err,
				)
				continue
			}

			stationLogger.Debug("reading published")
		}
	}
}

// closeClients closes all MQ clients gracefully.
func (s *Server) closeClients() {
	var wg sync.WaitGroup

	for i, client := range s.clients {
		wg.Add(1)
		go func(id int, c *mq.Client) {
			defer wg.Done()

			if err := c.Close(); err != nil {
				s.logger.Error("failed to close MQ client",
					"station_id", id,
					"error", err,
				)
				return
			}

			s.logger.Info("MQ client closed", "station_id", id)
		}(i, client)
	}

	wg.Wait()
}
