package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"aquaview.dev/monitor/internal/simulator"
	"aquaview.dev/monitor/pkg/metrics"
)

var simulatorCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Run the station simulator",
	Long: `Run the station simulator that:
- Spins up a fleet of simulated monitoring stations
- Generates correlated water quality readings per station
- Publishes readings to RabbitMQ at the configured interval`,
	RunE: runSimulator,
}

func init() {
	rootCmd.AddCommand(simulatorCmd)

	// Simulator-specific flags
	simulatorCmd.Flags().String("rabbitmq-url", "amqp://localhost:5672", "RabbitMQ URL")
	simulatorCmd.Flags().String("queue-name", "readings", "RabbitMQ queue name for readings")
	simulatorCmd.Flags().Int("station-count", 1, "Number of simulated stations")
	simulatorCmd.Flags().Duration("interval", 5*time.Second, "Time between readings per station")

	// Bind flags to viper
	_ = viper.BindPFlag("simulator.rabbitmq.url", simulatorCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("simulator.rabbitmq.queue_name", simulatorCmd.Flags().Lookup("queue-name"))
	_ = viper.BindPFlag("simulator.station_count", simulatorCmd.Flags().Lookup("station-count"))
	_ = viper.BindPFlag("simulator.interval", simulatorCmd.Flags().Lookup("interval"))
}

func runSimulator(_ *cobra.Command, _ []string) error {
	log := GetLogger()
	log.Info("starting simulator service")

	server, err := simulator.NewServer(&simulator.ServerConfig{
		Logger:       log,
		RabbitMQURL:  viper.GetString("simulator.rabbitmq.url"),
		QueueName:    viper.GetString("simulator.rabbitmq.queue_name"),
		Interval:     viper.GetDuration("simulator.interval"),
		StationCount: viper.GetInt("simulator.station_count"),
		Metrics:      metrics.NewSimulatorMetrics(metricsNamespace),
		MQMetrics:    metrics.NewMQMetrics(metricsNamespace),
	})
	if err != nil {
		return fmt.Errorf("failed to create simulator server: %w", err)
	}

	log.Info("simulator configuration",
		"station_count", viper.GetInt("simulator.station_count"),
		"interval", viper.GetDuration("simulator.interval"),
		"queue_name", viper.GetString("simulator.rabbitmq.queue_name"),
	)

	if err := server.Run(context.Background()); err != nil {
		log.Error("simulator server error", "error", err)
		return err
	}

	log.Info("simulator server stopped")
	return nil
}
