package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"aquaview.dev/monitor/pkg/mq"
	"aquaview.dev/monitor/pkg/quality"
)

// AMQPSource delivers readings from a RabbitMQ queue. Streaming subscribers
// share a single consume loop; FetchOnce maps to a synchronous basic.get.
type AMQPSource struct {
	logger *slog.Logger
	client mq.ClientInterface

	mu        sync.Mutex
	handlers  map[int]func(*quality.RawReading)
	nextID    int
	consuming bool
	stop      chan struct{}
	stopOnce  sync.Once
}

// AMQPSourceConfig holds the configuration for an AMQPSource.
type AMQPSourceConfig struct {
	Logger *slog.Logger
	Client mq.ClientInterface
}

// NewAMQPSource creates a new AMQPSource instance.
func NewAMQPSource(cfg *AMQPSourceConfig) (*AMQPSource, error) {
	if cfg == nil {
		return nil, errors.New("amqp source config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Client == nil {
		return nil, errors.New("mq client cannot be nil")
	}

	return &AMQPSource{
		logger:   cfg.Logger,
		client:   cfg.Client,
		handlers: make(map[int]func(*quality.RawReading)),
		stop:     make(chan struct{}),
	}, nil
}

// Subscribe registers a handler for streamed readings. The first subscriber
// starts the consume loop; later subscribers share it.
func (s *AMQPSource) Subscribe(handler func(*quality.RawReading)) (func(), error) {
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.consuming {
		deliveries, err := s.client.Consume()
		if err != nil {
			return nil, fmt.Errorf("failed to start consuming: %w", err)
		}
		go s.processDeliveries(deliveries)
		s.consuming = true
	}

	id := s.nextID
	s.nextID++
	s.handlers[id] = handler

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
	}, nil
}

func (s *AMQPSource) processDeliveries(deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-s.stop:
			s.logger.Info("amqp source stopped, ending delivery processing")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				s.logger.Warn("deliveries channel closed")
				return
			}
			s.handleDelivery(delivery)
		}
	}
}

func (s *AMQPSource) handleDelivery(delivery amqp.Delivery) {
	reading, err := decodeReading(delivery.Body)
	if err != nil {
		s.logger.Error("failed to decode reading", "error", err)
		// Ack even on parse error to avoid reprocessing a bad payload.
		if ackErr := delivery.Ack(false); ackErr != nil {
			s.logger.Error("failed to ack message", "error", ackErr)
		}
		return
	}

	s.dispatch(reading)

	if err := delivery.Ack(false); err != nil {
		s.logger.Error("failed to ack message", "error", err)
	}
}

func (s *AMQPSource) dispatch(reading *quality.RawReading) {
	s.mu.Lock()
	handlers := make([]func(*quality.RawReading), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(reading)
	}
}

// FetchOnce pulls a single message from the queue. It returns (nil, nil)
// when the queue is currently empty.
func (s *AMQPSource) FetchOnce(ctx context.Context) (*quality.RawReading, error) {
	body, ok, err := s.client.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reading: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return decodeReading(body)
}

// Close stops the consume loop and closes the underlying MQ client.
func (s *AMQPSource) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close mq client: %w", err)
	}
	return nil
}
