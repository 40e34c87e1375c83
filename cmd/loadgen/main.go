// Command loadgen produces synthetic order events onto a Kafka topic.
// Event timestamps are jittered backwards so that arrival order differs
// from event-time order, which is what the collator has to straighten out.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/jaswdr/faker"

	"github.com/Touchkin/eventcollate/pkg/event"
)

var (
	brokers  = flag.String("brokers", "localhost:9092", "comma-separated Kafka brokers")
	topic    = flag.String("topic", "events", "target topic")
	interval = flag.Duration("interval", 100*time.Millisecond, "delay between events")
	count    = flag.Int("count", 0, "number of events to produce, 0 for unbounded")
	jitter   = flag.Duration("jitter", 30*time.Second, "max backward skew applied to event timestamps")
)

func main() {
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("loadgen failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_8_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(strings.Split(*brokers, ","), saramaConfig)
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}
	defer producer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	gen := newGenerator()
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	produced := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping", "produced", produced)
			return nil
		case <-ticker.C:
			evt := gen.orderEvent()
			if err := produce(producer, *topic, evt); err != nil {
				logger.Error("failed to produce event", "event_id", evt.ID, "error", err)
				continue
			}
			produced++

			if produced%100 == 0 {
				logger.Info("progress", "produced", produced)
			}
			if *count > 0 && produced >= *count {
				logger.Info("done", "produced", produced)
				return nil
			}
		}
	}
}

func produce(producer sarama.SyncProducer, topic string, evt *event.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, _, err = producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(evt.ID),
		Value: sarama.ByteEncoder(payload),
	})
	return err
}

// generator produces fake order events.
type generator struct {
	faker faker.Faker
}

func newGenerator() *generator {
	return &generator{faker: faker.New()}
}

type orderData struct {
	OrderID      string  `json:"order_id"`
	CustomerName string  `json:"customer_name"`
	Email        string  `json:"email"`
	City         string  `json:"city"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	Items        int     `json:"items"`
}

func (g *generator) orderEvent() *event.Event {
	data := orderData{
		OrderID:      "ORD" + g.faker.UUID().V4()[0:8],
		CustomerName: g.faker.Person().Name(),
		Email:        g.faker.Internet().Email(),
		City:         g.faker.Address().City(),
		Amount:       g.faker.Float64(2, 5, 500),
		Currency:     "USD",
		Items:        g.faker.IntBetween(1, 10),
	}

	payload, _ := json.Marshal(data)

	// Skew the event time backwards by a random amount so the stream
	// arrives out of order.
	ts := time.Now().Add(-time.Duration(rand.Int63n(int64(*jitter) + 1)))
	subject := "orders/" + data.OrderID

	return &event.Event{
		ID:      uuid.NewString(),
		Source:  "loadgen",
		Type:    "order.created",
		Subject: &subject,
		Time:    &ts,
		Data:    payload,
		Attributes: map[string]string{
			"region": g.randomRegion(),
		},
	}
}

func (g *generator) randomRegion() string {
	regions := []string{"us-east-1", "us-west-2", "eu-west-1", "ap-south-1"}
	return regions[g.faker.IntBetween(0, len(regions)-1)]
}
