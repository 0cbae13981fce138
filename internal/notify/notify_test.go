package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/order"
)

func sampleConfirmation() Confirmation {
	return Confirmation{
		Order: order.Order{
			Number:    "AbCdEf123456",
			Amount:    decimal.NewFromInt(1300),
			Currency:  "INR",
			Status:    order.StatusPaid,
			CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			Shipping: order.Shipping{
				FirstName: "Asha", LastName: "Rao", City: "Pune", State: "MH", Pincode: "411001",
				ShippingAddress: "12 MG Road",
			},
		},
		Items: []order.Item{
			{ProductName: "Oud Royale", Quantity: 2, Price: decimal.NewFromInt(500)},
			{ProductName: "Musk <Noir>", Quantity: 1, Price: decimal.NewFromInt(300)},
		},
		PaymentID: "pay_1",
		Email:     "asha@example.com",
		Name:      "Asha",
	}
}

type fakeMailer struct {
	sent []Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, m Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

func TestRenderConfirmation(t *testing.T) {
	html, err := RenderConfirmation("HHH", sampleConfirmation())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"AbCdEf123456", "Oud Royale", "1000.00", "1300.00", "12 MG Road", "Musk &lt;Noir&gt;"} {
		if !strings.Contains(html, want) {
			t.Fatalf("html missing %q", want)
		}
	}
}

func TestInvoiceIsPDF(t *testing.T) {
	b, err := Invoice("HHH", sampleConfirmation())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("not a pdf: %q", b[:8])
	}
}

func TestDirectSendsWithCcAndInvoice(t *testing.T) {
	m := &fakeMailer{}
	d := NewDirect(m, "HHH", "ops@example.com")
	if err := d.OrderPaid(context.Background(), sampleConfirmation()); err != nil {
		t.Fatal(err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("sent=%d", len(m.sent))
	}
	msg := m.sent[0]
	if msg.To[0] != "asha@example.com" || len(msg.Cc) != 1 || msg.Cc[0] != "ops@example.com" {
		t.Fatalf("recipients to=%v cc=%v", msg.To, msg.Cc)
	}
	if len(msg.Attachments) != 1 || !strings.HasSuffix(msg.Attachments[0].Name, ".pdf") {
		t.Fatalf("attachments=%v", msg.Attachments)
	}
}

func TestDirectReportsTransportError(t *testing.T) {
	d := NewDirect(&fakeMailer{err: errors.New("smtp down")}, "HHH", "")
	if err := d.OrderPaid(context.Background(), sampleConfirmation()); err == nil {
		t.Fatalf("expected error")
	}
}

type memSink struct{ msgs []kafka.Message }

func (s *memSink) Publish(key, value []byte, headers ...kafka.Header) bool {
	s.msgs = append(s.msgs, kafka.Message{Key: key, Value: value, Headers: headers})
	return true
}

type recordingNotifier struct{ got []Confirmation }

func (r *recordingNotifier) OrderPaid(ctx context.Context, c Confirmation) error {
	r.got = append(r.got, c)
	return nil
}

func TestPublisherRelayRoundTrip(t *testing.T) {
	sink := &memSink{}
	p := NewPublisher(sink, "storefront")
	if err := p.OrderPaid(context.Background(), sampleConfirmation()); err != nil {
		t.Fatal(err)
	}
	if len(sink.msgs) != 1 || string(sink.msgs[0].Key) != "AbCdEf123456" {
		t.Fatalf("msgs=%v", sink.msgs)
	}

	rec := &recordingNotifier{}
	if err := Relay(rec)(context.Background(), sink.msgs[0]); err != nil {
		t.Fatal(err)
	}
	if len(rec.got) != 1 || rec.got[0].Email != "asha@example.com" || !rec.got[0].Order.Amount.Equal(decimal.NewFromInt(1300)) {
		t.Fatalf("relayed=%+v", rec.got)
	}

	// garbage is dropped, not retried
	if err := Relay(rec)(context.Background(), kafka.Message{Value: []byte("nope")}); err != nil {
		t.Fatalf("garbage: %v", err)
	}
}
