package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Producer пишет доменные события (ticket.*, stock.changed, audit.recorded)
// в топик Kafka. Best-effort: гарантируется только постановка события, сбой
// доставки логируется и не влияет на исход мутации.
type Producer struct {
	writer *kafka.Writer
	topic  string
	log    zerolog.Logger
}

// NewProducer создаёт продюсер. Если brokers или topic пустые — методы no-op.
func NewProducer(brokers []string, topic string, log zerolog.Logger) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{log: log}
	}
	return &Producer{
		topic: topic,
		log:   log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Produce отправляет событие с полезной нагрузкой. Ключ сообщения — имя события.
func (p *Producer) Produce(ctx context.Context, event string, payload map[string]interface{}) {
	if p.writer == nil {
		return
	}
	msg := map[string]interface{}{"event": event, "emitted_at": time.Now().Unix()}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		p.log.Error().Err(err).Str("event", event).Msg("kafka: marshal event")
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event), Value: body}); err != nil {
		p.log.Error().Err(err).Str("event", event).Msg("kafka: write event")
	}
}

// Close закрывает writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// ParseBrokers разбивает строку брокеров "host1:9092,host2:9092" на слайс.
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
