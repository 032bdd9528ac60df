package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/IBM/sarama"
	"github.com/piyushdan-dataslush/bms-analytics/internal/delivery/kafka"
	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/piyushdan-dataslush/bms-analytics/internal/service"
)

// decodeJob returns ok=false for payloads that can never be processed; those
// are acknowledged so they do not block the partition.
func (c *Consumer) decodeJob(ctx context.Context, message *sarama.ConsumerMessage) (models.Job, bool) {
	var e kafka.JobFiredEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.decodeJob: offset %d: %v", message.Offset, err)
		return models.Job{}, false
	}
	return e.Job(), true
}

func (c *Consumer) HandleCampaignDay(ctx context.Context, message *sarama.ConsumerMessage) error {
	job, ok := c.decodeJob(ctx, message)
	if !ok {
		return nil
	}

	cursor, err := job.Cursor()
	if err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleCampaignDay: %v", err)
		return nil
	}

	out, err := c.scheduler.ProcessDay(ctx, cursor)
	switch {
	case errors.Is(err, service.ErrDuplicateInvocation):
		c.l.Infof(ctx, "delivery.kafka.consumer.handlers.HandleCampaignDay: %s already processed", cursor.DedupeKey())
		return nil
	case errors.Is(err, models.ErrInvalidCursor):
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleCampaignDay: %v", err)
		return nil
	case err != nil:
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleCampaignDay: %v", err)
		return err
	}

	c.l.Infof(ctx, "delivery.kafka.consumer.handlers.HandleCampaignDay: %s %s scheduled %d, state %s",
		out.EventID, out.Date, out.Scheduled, out.State)
	return nil
}

func (c *Consumer) HandleCaptureShow(ctx context.Context, message *sarama.ConsumerMessage) error {
	job, ok := c.decodeJob(ctx, message)
	if !ok {
		return nil
	}

	show, err := job.Show()
	if err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleCaptureShow: %v", err)
		return nil
	}

	status := c.dispatcher.Dispatch(ctx, show)
	c.l.Debugf(ctx, "delivery.kafka.consumer.handlers.HandleCaptureShow: %s ended %s", show.Key(), status)
	return nil
}

func (c *Consumer) HandleCityBatch(ctx context.Context, message *sarama.ConsumerMessage) error {
	job, ok := c.decodeJob(ctx, message)
	if !ok {
		return nil
	}

	var in service.BatchInput
	if err := job.Batch(&in); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleCityBatch: %v", err)
		return nil
	}

	out, err := c.batch.ProcessCity(ctx, in)
	switch {
	case errors.Is(err, service.ErrUnknownCity), errors.Is(err, service.ErrScheduleUnavailable):
		c.l.Warnf(ctx, "delivery.kafka.consumer.handlers.HandleCityBatch: %s %s: %v", in.City, in.EventID, err)
		return nil
	case err != nil:
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleCityBatch: %v", err)
		return err
	}

	c.l.Infof(ctx, "delivery.kafka.consumer.handlers.HandleCityBatch: %s %s %s processed %d, uploaded %d",
		in.City, in.EventID, in.Date, out.RowsProcessed, out.RowsUploaded)
	return nil
}
