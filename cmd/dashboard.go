package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"aquaview.dev/monitor/internal/dashboard"
	"aquaview.dev/monitor/internal/ingest"
	"aquaview.dev/monitor/internal/transport"
	"aquaview.dev/monitor/pkg/logger"
	"aquaview.dev/monitor/pkg/metrics"
	"aquaview.dev/monitor/pkg/mq"
	"aquaview.dev/monitor/pkg/report"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Run the monitoring dashboard",
	Long: `Run the monitoring dashboard that:
- Ingests water quality readings from RabbitMQ or MQTT
- Classifies readings and maintains per-parameter history
- Serves the dashboard page, JSON API and websocket stream
- Generates AI water quality reports on demand`,
	RunE: runDashboard,
}

const metricsNamespace = "aquaview"

func init() {
	rootCmd.AddCommand(dashboardCmd)

	// Dashboard-specific flags
	dashboardCmd.Flags().Int("http-port", 8080, "HTTP server port")
	dashboardCmd.Flags().String("transport", "amqp", "Reading transport (amqp or mqtt)")
	dashboardCmd.Flags().String("rabbitmq-url", "amqp://localhost:5672", "RabbitMQ URL")
	dashboardCmd.Flags().String("queue-name", "readings", "RabbitMQ queue name for readings")
	dashboardCmd.Flags().String("mqtt-broker", "tcp://localhost:1883", "MQTT broker URL")
	dashboardCmd.Flags().String("mqtt-topic", "aquaview/readings", "MQTT topic for readings")
	dashboardCmd.Flags().String("mqtt-client-id", "aquaview-dashboard", "MQTT client ID")
	dashboardCmd.Flags().String("report-api-key", "", "Gemini API key for AI reports (empty disables reports)")
	dashboardCmd.Flags().String("report-model", "", "Generative model for AI reports")

	// Bind flags to viper
	_ = viper.BindPFlag("dashboard.http.port", dashboardCmd.Flags().Lookup("http-port"))
	_ = viper.BindPFlag("dashboard.transport", dashboardCmd.Flags().Lookup("transport"))
	_ = viper.BindPFlag("dashboard.rabbitmq.url", dashboardCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("dashboard.rabbitmq.queue_name", dashboardCmd.Flags().Lookup("queue-name"))
	_ = viper.BindPFlag("dashboard.mqtt.broker", dashboardCmd.Flags().Lookup("mqtt-broker"))
	_ = viper.BindPFlag("dashboard.mqtt.topic", dashboardCmd.Flags().Lookup("mqtt-topic"))
	_ = viper.BindPFlag("dashboard.mqtt.client_id", dashboardCmd.Flags().Lookup("mqtt-client-id"))
	_ = viper.BindPFlag("dashboard.report.api_key", dashboardCmd.Flags().Lookup("report-api-key"))
	_ = viper.BindPFlag("dashboard.report.model", dashboardCmd.Flags().Lookup("report-model"))
}

// readingSource is an ingest source with a transport-level shutdown.
type readingSource interface {
	ingest.Source
	Close() error
}

func runDashboard(_ *cobra.Command, _ []string) error {
	log := GetLogger()
	log.Info("starting dashboard service")

	mqMetrics := metrics.NewMQMetrics(metricsNamespace)
	ingestMetrics := metrics.NewIngestMetrics(metricsNamespace)
	dashboardMetrics := metrics.NewDashboardMetrics(metricsNamespace)

	var source readingSource
	switch viper.GetString("dashboard.transport") {
	case "amqp":
		client := mq.New(
			viper.GetString("dashboard.rabbitmq.queue_name"),
			viper.GetString("dashboard.rabbitmq.url"),
			logger.Component(log, "mq-client"),
		)
		client.SetMetrics(mqMetrics)

		amqpSource, err := transport.NewAMQPSource(&transport.AMQPSourceConfig{
			Logger: logger.Component(log, "transport"),
			Client: client,
		})
		if err != nil {
			return fmt.Errorf("failed to create amqp source: %w", err)
		}
		source = amqpSource

	case "mqtt":
		conn, err := transport.DialMQTT(
			viper.GetString("dashboard.mqtt.broker"),
			viper.GetString("dashboard.mqtt.client_id"),
			logger.Component(log, "mqtt-client"),
		)
		if err != nil {
			return fmt.Errorf("failed to connect to mqtt broker: %w", err)
		}

		mqttSource, err := transport.NewMQTTSource(&transport.MQTTSourceConfig{
			Logger: logger.Component(log, "transport"),
			Conn:   conn,
			Topic:  viper.GetString("dashboard.mqtt.topic"),
		})
		if err != nil {
			return fmt.Errorf("failed to create mqtt source: %w", err)
		}
		source = mqttSource

	default:
		return fmt.Errorf("unknown transport %q", viper.GetString("dashboard.transport"))
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.Error("failed to close reading source", "error", err)
		}
	}()

	ingestor, err := ingest.NewIngestor(&ingest.Config{
		Logger:  logger.Component(log, "ingest"),
		Source:  source,
		Metrics: ingestMetrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create ingestor: %w", err)
	}

	if err := ingestor.Start(); err != nil {
		return fmt.Errorf("failed to start ingestor: %w", err)
	}
	defer func() {
		if err := ingestor.Stop(); err != nil {
			log.Error("failed to stop ingestor", "error", err)
		}
	}()

	var reports dashboard.ReportGenerator
	if apiKey := viper.GetString("dashboard.report.api_key"); apiKey != "" {
		client, err := report.NewClient(&report.ClientConfig{
			Logger: logger.Component(log, "report"),
			APIKey: apiKey,
			Model:  viper.GetString("dashboard.report.model"),
		})
		if err != nil {
			return fmt.Errorf("failed to create report client: %w", err)
		}
		reports = client
	} else {
		log.Info("no report API key configured, AI reports disabled")
	}

	server, err := dashboard.NewServer(&dashboard.ServerConfig{
		Logger:   logger.Component(log, "dashboard"),
		HTTPPort: viper.GetInt("dashboard.http.port"),
		Ingestor: ingestor,
		Reports:  reports,
		Metrics:  dashboardMetrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create dashboard server: %w", err)
	}

	log.Info("dashboard configuration",
		"http_port", viper.GetInt("dashboard.http.port"),
		"transport", viper.GetString("dashboard.transport"),
		"reports_enabled", reports != nil,
	)

	if err := server.Run(context.Background()); err != nil {
		log.Error("dashboard server error", "error", err)
		return err
	}

	log.Info("dashboard server stopped")
	return nil
}
