package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	kafka "github.com/piyushdan-dataslush/bms-analytics/internal/delivery/kafka"
	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
)

type Producer interface {
	PublishJob(ctx context.Context, job models.Job) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishJob(ctx context.Context, job models.Job) error {
	topic, ok := kafka.TopicForKind(job.Kind)
	if !ok {
		return fmt.Errorf("no topic for job kind %q", job.Kind)
	}

	now := time.Now()
	val, err := json.Marshal(kafka.NewJobFiredEvent(job, now))
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.producer.PublishJob: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(job.DedupeKey), // same show or day lands on one partition
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("job_kind"),
				Value: []byte(job.Kind),
			},
			{
				Key:   []byte("timestamp"),
				Value: []byte(now.Format(time.RFC3339)),
			},
		},
	}

	if _, _, err := p.prod.SendMessage(msg); err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.producer.PublishJob: %v", err)
		return err
	}
	return nil
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}
