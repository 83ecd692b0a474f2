// Package passevents publishes one Kafka event per pass resolution.
package passevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/observability"
	h3mapper "github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/mapper/h3"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/resolver"
)

type Event struct {
	SatID  int       `json:"satid"`
	Source string    `json:"source"`
	Passes int       `json:"passes"`
	Lat    float64   `json:"lat"`
	Lon    float64   `json:"lon"`
	Cell   string    `json:"cell,omitempty"`
	TS     time.Time `json:"ts"`
}

type Publisher struct {
	logger *slog.Logger
	topic  string
	res    int
	now    func() time.Time

	mu      sync.RWMutex
	closed  bool
	events  chan Event
	prod    sarama.AsyncProducer
	stopped chan struct{}
}

var _ resolver.EventSink = (*Publisher)(nil)

// NewPublisher connects an async producer to brokers.
func NewPublisher(logger *slog.Logger, brokers []string, topic string, queueSize, h3Res int) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("passevents: create async producer: %w", err)
	}
	return NewWithProducer(logger, prod, topic, queueSize, h3Res), nil
}

func NewWithProducer(logger *slog.Logger, prod sarama.AsyncProducer, topic string, queueSize, h3Res int) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	p := &Publisher{
		logger:  logger,
		topic:   topic,
		res:     h3Res,
		now:     time.Now,
		events:  make(chan Event, queueSize),
		prod:    prod,
		stopped: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.logger.Error("passevents: marshal", "err", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(strconv.Itoa(ev.SatID)),
				Value: sarama.ByteEncoder(b),
			}
		}
	}()

	go func() {
		for err := range p.prod.Errors() {
			if err != nil {
				p.logger.Warn("passevents: producer error", "err", err)
			}
		}
	}()

	return p
}

// PublishResolution enqueues an event for res. A full queue drops it.
func (p *Publisher) PublishResolution(ctx context.Context, q model.QueryParams, res resolver.Resolution) {
	ev := Event{
		SatID:  q.SatID,
		Source: res.Source.String(),
		Passes: len(res.Passes),
		Lat:    q.Latitude,
		Lon:    q.Longitude,
		TS:     p.now().UTC(),
	}
	if cell, err := h3mapper.ObserverCell(q.Latitude, q.Longitude, p.res); err == nil {
		ev.Cell = cell
	} else {
		p.logger.DebugContext(ctx, "passevents: no observer cell", "err", err)
	}
	p.Publish(ev)
}

func (p *Publisher) Publish(ev Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.events <- ev:
	default:
		observability.IncEventsDropped()
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()
	<-p.stopped

	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("passevents: close producer: %w", err)
	}
	return nil
}
