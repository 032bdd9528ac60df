package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/piyushdan-dataslush/bms-analytics/internal/delivery/kafka"
	"github.com/piyushdan-dataslush/bms-analytics/internal/service"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
)

// rejoinBackoff spaces out session restarts after a failed message.
const rejoinBackoff = 2 * time.Second

type Consumer struct {
	consGr     sarama.ConsumerGroup
	scheduler  service.CampaignScheduler
	dispatcher service.CaptureDispatcher
	batch      service.BatchService
	l          logger.Logger
	wg         sync.WaitGroup
}

func NewConsumer(
	consGr sarama.ConsumerGroup,
	scheduler service.CampaignScheduler,
	dispatcher service.CaptureDispatcher,
	batch service.BatchService,
	l logger.Logger,
) *Consumer {
	return &Consumer{
		consGr:     consGr,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		batch:      batch,
		l:          l.With("component", "job_consumer"),
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	switch msg.Topic {
	case kafka.TopicCampaignDay:
		return c.HandleCampaignDay(ctx, msg)
	case kafka.TopicCaptureShow:
		return c.HandleCaptureShow(ctx, msg)
	case kafka.TopicCityBatch:
		return c.HandleCityBatch(ctx, msg)
	default:
		c.l.Warnf(ctx, "delivery.kafka.consumer.consumer.processMessage: unknown topic %s", msg.Topic)
		return nil
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	topics := []string{kafka.TopicCampaignDay, kafka.TopicCaptureShow, kafka.TopicCityBatch}
	c.wg.Go(func() {
		for {
			if err := c.consGr.Consume(ctx, topics, c); err != nil {
				c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
				select {
				case <-ctx.Done():
				case <-time.After(rejoinBackoff):
				}
			}

			if ctx.Err() != nil {
				c.l.Infof(ctx, "delivery.kafka.consumer.consumer.Start: %v", ctx.Err())
				return
			}
		}
	})

	// Handle errors
	c.wg.Go(func() {
		for err := range c.consGr.Errors() {
			c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
		}
	})

	c.l.Infof(ctx, "Consumer is consuming topics: %v", topics)
	return nil
}

func (c *Consumer) Close() error {
	if err := c.consGr.Close(); err != nil {
		return err
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session started")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session ended")
	return nil
}

// ConsumeClaim stops at the first message whose handler fails, leaving it
// unmarked so the next session redelivers it.
func (c *Consumer) ConsumeClaim(ss sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := c.processMessage(ss.Context(), message); err != nil {
				c.l.Errorf(ss.Context(), "delivery.kafka.consumer.consumer.ConsumeClaim: topic %s offset %d: %v",
					message.Topic, message.Offset, err)
				return fmt.Errorf("topic %s partition %d offset %d: %w", message.Topic, message.Partition, message.Offset, err)
			}

			ss.MarkMessage(message, "")

		case <-ss.Context().Done():
			return nil
		}
	}
}
