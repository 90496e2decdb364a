package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/realtime"
)

type Consumer struct {
	reader *kafka.Reader
	origin string
	log    *logger.Logger
}

// NewConsumer builds the change-event bridge for one instance. The caller
// must pass a group id unique to this instance: the topic is a broadcast
// channel, every instance has to see every event, and a shared group would
// turn it into a work queue where only one member gets each message.
// origin is this instance's id, used to skip events it produced itself.
func NewConsumer(brokers []string, topic, groupID, origin string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, origin: origin, log: log}
}

// Start consumes change events until ctx is cancelled, handing each one to
// handler. This is the bridge that replays other instances' mutations into
// the local change feed.
func (c *Consumer) Start(ctx context.Context, handler func(ev realtime.ChangeEvent)) {
	c.log.LogKafka("CONSUME", c.reader.Config().Topic, "consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("KAFKA", fmt.Sprintf("error reading message: %v", err))
			continue
		}

		c.deliver(msg.Value, handler)
	}
}

// deliver decodes one wire message and hands it to handler, unless this
// instance produced it. Locally produced events already went through the
// feed at emit time; replaying them would show every mutation twice.
func (c *Consumer) deliver(value []byte, handler func(ev realtime.ChangeEvent)) {
	var ev realtime.ChangeEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		c.log.Warn("KAFKA", fmt.Sprintf("failed to unmarshal change event: %v", err))
		return
	}

	if c.origin != "" && ev.Origin == c.origin {
		return
	}

	ev.Origin = ""
	handler(ev)
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
