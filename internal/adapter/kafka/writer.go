package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/event-map-index/internal/config"
	"github.com/couchcryptid/event-map-index/internal/domain"
	"github.com/couchcryptid/event-map-index/internal/observability"
	"github.com/couchcryptid/event-map-index/internal/pipeline"
)

// Entry is the message value published for each indexed event.
type Entry struct {
	RegNum string       `json:"reg_num"`
	Number int          `json:"number"`
	Region string       `json:"region"`
	Place  string       `json:"place"`
	Event  domain.Event `json:"event"`
}

// messageWriter is the part of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes index entries to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer  messageWriter
	labels  domain.Labels
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	labels := domain.Labels{
		UnknownRegion: cfg.UnknownRegion,
		UnknownPlace:  cfg.UnknownPlace,
		UnknownMap:    cfg.UnknownMap,
	}
	return &Writer{writer: w, labels: labels, metrics: metrics, logger: logger}
}

// Stage serializes every resolution of the run. Nothing is sent until Commit.
func (w *Writer) Stage(_ context.Context, result *pipeline.Result) (pipeline.Staged, error) {
	msgs := make([]kafkago.Message, len(result.Resolutions))
	for i, r := range result.Resolutions {
		msg, err := serializeToMessage(result.RegNum, r, w.labels)
		if err != nil {
			return nil, err
		}
		msgs[i] = msg
	}
	return &stagedMessages{w: w, msgs: msgs}, nil
}

type stagedMessages struct {
	w    *Writer
	msgs []kafkago.Message
}

// Commit publishes the staged messages in a single WriteMessages call.
func (s *stagedMessages) Commit(ctx context.Context) error {
	if len(s.msgs) == 0 {
		return nil
	}
	if err := s.w.writer.WriteMessages(ctx, s.msgs...); err != nil {
		return fmt.Errorf("publish index entries: %w", err)
	}
	s.w.metrics.EntriesPublished.Add(float64(len(s.msgs)))
	s.w.logger.Info("index entries published", "count", len(s.msgs))
	return nil
}

func (s *stagedMessages) Discard() { s.msgs = nil }

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one resolution into a Kafka message keyed by
// event ID. Missing region and place carry the same sentinels as the index.
func serializeToMessage(regNum string, r domain.Resolution, labels domain.Labels) (kafkago.Message, error) {
	entry := Entry{
		RegNum: regNum,
		Number: r.Number,
		Region: labelOr(r.Region, labels.UnknownRegion),
		Place:  labelOr(r.Place, labels.UnknownPlace),
		Event:  r.Event,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize index entry %d: %w", r.Event.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(r.Event.ID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "reg_num", Value: []byte(regNum)},
			{Key: "region", Value: []byte(entry.Region)},
		},
	}, nil
}

func labelOr(s, label string) string {
	if s == "" {
		return label
	}
	return s
}
