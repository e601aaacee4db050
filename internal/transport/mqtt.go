package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"aquaview.dev/monitor/pkg/quality"
)

const mqttQoS = 1

// Conn is the subset of the paho MQTT client the source relies on.
type Conn interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
	Disconnect(quiesce uint)
}

// DialMQTT connects to an MQTT broker and returns the connection. The client
// reconnects automatically after broker failures.
func DialMQTT(brokerURL, clientID string, logger *slog.Logger) (Conn, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("mqtt broker connected", "broker", brokerURL)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker: %w", token.Error())
	}

	return client, nil
}

// MQTTSource delivers readings published by field stations on an MQTT topic.
// It caches the latest reading so FetchOnce can answer without waiting for
// the next publish.
type MQTTSource struct {
	logger *slog.Logger
	conn   Conn
	topic  string

	mu         sync.Mutex
	handlers   map[int]func(*quality.RawReading)
	nextID     int
	subscribed bool
	last       *quality.RawReading
	ready      chan struct{}
	readyOnce  sync.Once
}

// fetchWait bounds how long FetchOnce waits for a retained message after
// establishing the subscription.
const fetchWait = 2 * time.Second

// MQTTSourceConfig holds the configuration for an MQTTSource.
type MQTTSourceConfig struct {
	Logger *slog.Logger
	Conn   Conn
	Topic  string
}

// NewMQTTSource creates a new MQTTSource instance.
func NewMQTTSource(cfg *MQTTSourceConfig) (*MQTTSource, error) {
	if cfg == nil {
		return nil, errors.New("mqtt source config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Conn == nil {
		return nil, errors.New("mqtt connection cannot be nil")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic cannot be empty")
	}

	return &MQTTSource{
		logger:   cfg.Logger,
		conn:     cfg.Conn,
		topic:    cfg.Topic,
		handlers: make(map[int]func(*quality.RawReading)),
		ready:    make(chan struct{}),
	}, nil
}

// Subscribe registers a handler for streamed readings. The first subscriber
// establishes the broker subscription; later subscribers share it.
func (s *MQTTSource) Subscribe(handler func(*quality.RawReading)) (func(), error) {
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.subscribed {
		token := s.conn.Subscribe(s.topic, mqttQoS, s.onMessage)
		if token.Wait() && token.Error() != nil {
			return nil, fmt.Errorf("failed to subscribe to %s: %w", s.topic, token.Error())
		}
		s.subscribed = true
		s.logger.Info("subscribed to mqtt topic", "topic", s.topic)
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

func (s *MQTTSource) onMessage(_ mqtt.Client, msg mqtt.Message) {
	reading, err := decodeReading(msg.Payload())
	if err != nil {
		s.logger.Error("failed to decode reading",
			"topic", msg.Topic(),
			"error", err)
		return
	}

	s.mu.Lock()
	s.last = reading
	s.readyOnce.Do(func() { close(s.ready) })
	handlers := make([]func(*quality.RawReading), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(reading)
	}
}

// FetchOnce returns the most recent reading seen on the topic. It
// establishes the broker subscription on first use and waits briefly for a
// retained message, returning (nil, nil) when nothing has been published.
func (s *MQTTSource) FetchOnce(ctx context.Context) (*quality.RawReading, error) {
	s.mu.Lock()
	if !s.subscribed {
		token := s.conn.Subscribe(s.topic, mqttQoS, s.onMessage)
		if token.Wait() && token.Error() != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", s.topic, token.Error())
		}
		s.subscribed = true
	}
	last := s.last
	s.mu.Unlock()

	if last != nil {
		return last, nil
	}

	select {
	case <-s.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(fetchWait):
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}

// Close unsubscribes from the topic and disconnects from the broker.
func (s *MQTTSource) Close() error {
	s.mu.Lock()
	subscribed := s.subscribed
	s.subscribed = false
	s.mu.Unlock()

	if subscribed {
		if token := s.conn.Unsubscribe(s.topic); token.Wait() && token.Error() != nil {
			s.logger.Warn("failed to unsubscribe", "topic", s.topic, "error", token.Error())
		}
	}
	s.conn.Disconnect(250)
	return nil
}
