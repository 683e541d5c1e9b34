package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakePublisher struct {
	exchange, key string
	msg           amqp091.Publishing
}

func (p *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	p.exchange, p.key, p.msg = exchange, key, msg
	return nil
}

func TestLoggerNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))
	if err := n.Send(context.Background(), Message{Kind: KindPaymentReceived, Body: "You received $500.00 from Acme Corp"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), `"kind":"payment_received"`) {
		t.Fatalf("unexpected log output %s", buf.String())
	}
	var nilNotifier *LoggerNotifier
	if err := nilNotifier.Send(context.Background(), Message{}); err != nil {
		t.Fatalf("nil notifier: %v", err)
	}
}

func TestKafkaNotifier(t *testing.T) {
	w := &fakeWriter{}
	n := NewKafkaNotifierWithWriter(w)
	msg := Message{Kind: KindWithdrawalCompleted, TransactionID: "tx-1", Amount: 2_000}
	if err := n.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != KindWithdrawalCompleted {
		t.Fatalf("unexpected messages %+v", w.msgs)
	}
	var decoded Message
	if err := json.Unmarshal(w.msgs[0].Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.TransactionID != "tx-1" || decoded.Amount != 2_000 {
		t.Fatalf("unexpected payload %+v", decoded)
	}

	w.err = errors.New("broker down")
	if err := n.Send(context.Background(), msg); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestAMQPNotifier(t *testing.T) {
	p := &fakePublisher{}
	n := NewAMQPNotifier(p, "ctrlpay", "notifications")
	if err := n.Send(context.Background(), Message{Kind: KindPaymentReceived}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if p.exchange != "ctrlpay" || p.key != "notifications.payment_received" {
		t.Fatalf("unexpected routing %s %s", p.exchange, p.key)
	}
	if p.msg.ContentType != "application/json" || p.msg.DeliveryMode != amqp091.Persistent {
		t.Fatalf("unexpected publishing %+v", p.msg)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestFanoutJoinsErrors(t *testing.T) {
	good := &fakeWriter{}
	bad := &fakeWriter{err: errors.New("boom")}
	f := Fanout{NewKafkaNotifierWithWriter(bad), nil, NewKafkaNotifierWithWriter(good)}
	err := f.Send(context.Background(), Message{Kind: KindInvoiceCreated})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(good.msgs) != 1 {
		t.Fatal("fanout stopped at first failure")
	}
	var decoded Message
	_ = json.Unmarshal(good.msgs[0].Value, &decoded)
	if decoded.SentAt.IsZero() {
		t.Fatal("expected SentAt to be stamped")
	}
}
