package mq_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"aquaview.dev/monitor/pkg/mq"
)

var _ = Describe("MQ Client", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	})

	Describe("New", func() {
		It("should create a new client instance", func() {
			client := mq.New("readings", "amqp://localhost:5672", logger)
			Expect(client).NotTo(BeNil())
		})

		It("should start background reconnection goroutine", func() {
			client := mq.New("readings", "amqp://invalid:5672", logger)
			Expect(client).NotTo(BeNil())

			time.Sleep(100 * time.Millisecond)

			_ = client.Close()
		})
	})

	Describe("Push", func() {
		Context("when not connected", func() {
			It("should retry with backoff until the context expires", func() {
				client := mq.New("readings", "amqp://invalid:5672", logger)

				time.Sleep(100 * time.Millisecond)

				ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
				defer cancel()

				start := time.Now()
				err := client.Push(ctx, []byte(`{"TDS":250}`))
				elapsed := time.Since(start)

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(SatisfyAny(
					ContainSubstring("context deadline exceeded"),
					ContainSubstring("context canceled"),
				))
				Expect(elapsed).To(BeNumerically(">=", 100*time.Millisecond))

				_ = client.Close()
			})
		})
	})

	Describe("UnsafePush", func() {
		Context("when not connected", func() {
			It("should fail immediately", func() {
				client := mq.New("readings", "amqp://invalid:5672", logger)

				time.Sleep(100 * time.Millisecond)

				err := client.UnsafePush(context.Background(), []byte("test"))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not connected"))

				_ = client.Close()
			})
		})
	})

	Describe("Get", func() {
		Context("when not connected", func() {
			It("should fail with a not-connected error", func() {
				client := mq.New("readings", "amqp://invalid:5672", logger)

				time.Sleep(100 * time.Millisecond)

				body, ok, err := client.Get(context.Background())
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not connected"))
				Expect(ok).To(BeFalse())
				Expect(body).To(BeNil())

				_ = client.Close()
			})
		})
	})

	Describe("Consume", func() {
		Context("when not connected", func() {
			It("should fail with a not-connected error", func() {
				client := mq.New("readings", "amqp://invalid:5672", logger)

				time.Sleep(100 * time.Millisecond)

				deliveries, err := client.Consume()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not connected"))
				Expect(deliveries).To(BeNil())

				_ = client.Close()
			})
		})
	})

	Describe("Close", func() {
		It("should report already closed on a never-connected client", func() {
			client := mq.New("readings", "amqp://invalid:5672", logger)
			err := client.Close()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("already closed"))
		})
	})
})
