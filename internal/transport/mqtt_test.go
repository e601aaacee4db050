package transport_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"aquaview.dev/monitor/internal/transport"
	"aquaview.dev/monitor/pkg/quality"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeConn struct {
	mu             sync.Mutex
	subscribeErr   error
	handler        mqtt.MessageHandler
	subscribeTopic string
	subscribeCalls int
	unsubscribed   []string
	disconnected   bool
}

func (c *fakeConn) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribeCalls++
	if c.subscribeErr != nil {
		return &fakeToken{err: c.subscribeErr}
	}
	c.subscribeTopic = topic
	c.handler = callback
	return &fakeToken{}
}

func (c *fakeConn) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubscribed = append(c.unsubscribed, topics...)
	return &fakeToken{}
}

func (c *fakeConn) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func (c *fakeConn) publish(payload string) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler != nil {
		handler(nil, &fakeMessage{payload: []byte(payload)})
	}
}

type fakeMessage struct {
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return "aquaview/readings" }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

var _ = Describe("MQTTSource", func() {
	var (
		logger *slog.Logger
		conn   *fakeConn
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
		conn = &fakeConn{}
	})

	newSource := func() *transport.MQTTSource {
		source, err := transport.NewMQTTSource(&transport.MQTTSourceConfig{
			Logger: logger,
			Conn:   conn,
			Topic:  "aquaview/readings",
		})
		Expect(err).NotTo(HaveOccurred())
		return source
	}

	Describe("NewMQTTSource", func() {
		It("should require a config", func() {
			source, err := transport.NewMQTTSource(nil)
			Expect(err).To(HaveOccurred())
			Expect(source).To(BeNil())
		})

		It("should require a connection", func() {
			source, err := transport.NewMQTTSource(&transport.MQTTSourceConfig{
				Logger: logger,
				Topic:  "aquaview/readings",
			})
			Expect(err).To(HaveOccurred())
			Expect(source).To(BeNil())
		})

		It("should require a topic", func() {
			source, err := transport.NewMQTTSource(&transport.MQTTSourceConfig{
				Logger: logger,
				Conn:   conn,
			})
			Expect(err).To(HaveOccurred())
			Expect(source).To(BeNil())
		})
	})

	Describe("Subscribe", func() {
		It("should subscribe to the configured topic once", func() {
			source := newSource()

			_, err := source.Subscribe(func(*quality.RawReading) {})
			Expect(err).NotTo(HaveOccurred())
			_, err = source.Subscribe(func(*quality.RawReading) {})
			Expect(err).NotTo(HaveOccurred())

			Expect(conn.subscribeCalls).To(Equal(1))
			Expect(conn.subscribeTopic).To(Equal("aquaview/readings"))
		})

		It("should deliver decoded readings to the handler", func() {
			source := newSource()

			received := make(chan *quality.RawReading, 1)
			_, err := source.Subscribe(func(r *quality.RawReading) {
				received <- r
			})
			Expect(err).NotTo(HaveOccurred())

			conn.publish(`{"Temperature":22.5,"Turbidity":80}`)

			var reading *quality.RawReading
			Eventually(received).Should(Receive(&reading))
			Expect(reading.Temperature).To(HaveValue(BeNumerically("==", 22.5)))
			Expect(reading.Turbidity).To(HaveValue(BeNumerically("==", 80)))
			Expect(reading.TDS).To(BeNil())
		})

		It("should drop malformed payloads", func() {
			source := newSource()

			received := make(chan *quality.RawReading, 1)
			_, err := source.Subscribe(func(r *quality.RawReading) {
				received <- r
			})
			Expect(err).NotTo(HaveOccurred())

			conn.publish(`garbage`)
			Consistently(received).ShouldNot(Receive())
		})

		It("should stop delivering after unsubscribe", func() {
			source := newSource()

			received := make(chan *quality.RawReading, 2)
			unsubscribe, err := source.Subscribe(func(r *quality.RawReading) {
				received <- r
			})
			Expect(err).NotTo(HaveOccurred())

			conn.publish(`{"TDS":100}`)
			Eventually(received).Should(Receive())

			unsubscribe()

			conn.publish(`{"TDS":200}`)
			Consistently(received).ShouldNot(Receive())
		})

		It("should propagate broker subscription failures", func() {
			conn.subscribeErr = context.DeadlineExceeded
			source := newSource()

			unsubscribe, err := source.Subscribe(func(*quality.RawReading) {})
			Expect(err).To(HaveOccurred())
			Expect(unsubscribe).To(BeNil())
		})
	})

	Describe("FetchOnce", func() {
		It("should give up when the context expires before anything is published", func() {
			source := newSource()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			reading, err := source.FetchOnce(ctx)
			Expect(err).To(HaveOccurred())
			Expect(reading).To(BeNil())
		})

		It("should return the latest cached reading", func() {
			source := newSource()

			_, err := source.Subscribe(func(*quality.RawReading) {})
			Expect(err).NotTo(HaveOccurred())

			conn.publish(`{"pH":7.0}`)
			conn.publish(`{"pH":6.5}`)

			reading, err := source.FetchOnce(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(reading.PH).To(HaveValue(BeNumerically("==", 6.5)))
		})
	})

	Describe("Close", func() {
		It("should unsubscribe and disconnect", func() {
			source := newSource()

			_, err := source.Subscribe(func(*quality.RawReading) {})
			Expect(err).NotTo(HaveOccurred())

			Expect(source.Close()).To(Succeed())
			Expect(conn.unsubscribed).To(ContainElement("aquaview/readings"))
			Expect(conn.disconnected).To(BeTrue())
		})
	})
})
