package payments

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ctrl-pay/ctrl_pay/internal/fees"
	"github.com/ctrl-pay/ctrl_pay/internal/invoice"
	"github.com/ctrl-pay/ctrl_pay/internal/ledger"
	"github.com/ctrl-pay/ctrl_pay/internal/notification"
	"github.com/ctrl-pay/ctrl_pay/internal/processor"
)

type testNotifier struct {
	last notification.Message
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.last = msg
	return nil
}

// blockingProcessor parks payments until release is closed.
type blockingProcessor struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProcessor) AuthorizePayment(ctx context.Context, _ processor.PaymentAuthorization) (processor.Decision, error) {
	close(p.entered)
	select {
	case <-p.release:
		return processor.Decision{Reference: "ref", Status: processor.StatusApproved}, nil
	case <-ctx.Done():
		return processor.Decision{}, ctx.Err()
	}
}

func (p *blockingProcessor) AuthorizePayout(context.Context, processor.PayoutAuthorization) (processor.Decision, error) {
	return processor.Decision{}, nil
}

var testCard = &processor.Card{Number: "4242424242424242", Expiry: "12/29", CVV: "123", Name: "Jane Client"}

type fixture struct {
	book     *ledger.Book
	invoices *invoice.Service
	notifier *testNotifier
	svc      *Service
	inv      invoice.Invoice
}

func newFixture(t *testing.T, proc processor.Processor) fixture {
	t.Helper()
	book := ledger.NewBook(nil, nil)
	invoices := invoice.NewService(invoice.NewMemoryRepository(), "")
	notifier := &testNotifier{}
	inv, err := invoices.Create(context.Background(), invoice.CreateInput{
		Amount:      50_000,
		Description: "Website Design for Acme Corp",
		ClientName:  "Acme Corp",
		ClientEmail: "billing@acme.test",
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return fixture{
		book:     book,
		invoices: invoices,
		notifier: notifier,
		svc:      NewService(book, invoices, fees.Default(), proc, notifier),
		inv:      inv,
	}
}

func TestPayInvoiceSuccess(t *testing.T) {
	f := newFixture(t, processor.NewSimulated(0, 0))
	ctx := context.Background()

	res, err := f.svc.PayInvoice(ctx, PayInput{InvoiceID: f.inv.ID, Channel: "card", Card: testCard})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if res.Breakdown != (ledger.Breakdown{Gross: 50_000, Fee: 1_000, Net: 49_000}) {
		t.Fatalf("unexpected breakdown %+v", res.Breakdown)
	}
	if got := f.book.Snapshot().Balance(); got != 49_000 {
		t.Fatalf("expected balance 49000, got %d", got)
	}
	tx := res.Transaction
	if tx.Kind != ledger.KindPayment || tx.Status != ledger.StatusCompleted || tx.Counterparty != "Acme Corp" || tx.Channel != "card" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if res.Invoice.Status != invoice.StatusPaid || res.Invoice.TransactionID != tx.ID {
		t.Fatalf("invoice not marked paid: %+v", res.Invoice)
	}
	if f.notifier.last.Kind != notification.KindPaymentReceived || f.notifier.last.Body != "You received $500.00 from Acme Corp" {
		t.Fatalf("unexpected notification %+v", f.notifier.last)
	}

	if _, err := f.svc.PayInvoice(ctx, PayInput{InvoiceID: f.inv.ID, Channel: "card", Card: testCard}); !errors.Is(err, invoice.ErrAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}
	if f.book.Snapshot().Len() != 1 {
		t.Fatal("second payment was booked")
	}
}

func TestPayInvoiceRejections(t *testing.T) {
	cases := []struct {
		name  string
		input func(id string) PayInput
		want  error
	}{
		{"no channel", func(id string) PayInput { return PayInput{InvoiceID: id} }, ErrChannelRequired},
		{"card missing", func(id string) PayInput { return PayInput{InvoiceID: id, Channel: "card"} }, ErrCardRequired},
		{"unknown channel", func(id string) PayInput { return PayInput{InvoiceID: id, Channel: "mobile"} }, fees.ErrUnknownChannel},
		{"unknown invoice", func(string) PayInput { return PayInput{InvoiceID: "nope", Channel: "bank"} }, invoice.ErrInvoiceNotFound},
		{"bad card", func(id string) PayInput {
			return PayInput{InvoiceID: id, Channel: "card", Card: &processor.Card{Number: "12", Expiry: "12/29", CVV: "123", Name: "x"}}
		}, processor.ErrInvalidCard},
		{"declined", func(id string) PayInput {
			card := *testCard
			card.Number = processor.DeclinedTestCard
			return PayInput{InvoiceID: id, Channel: "card", Card: &card}
		}, processor.ErrDeclined},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, processor.NewSimulated(0, 0))
			if _, err := f.svc.PayInvoice(context.Background(), tc.input(f.inv.ID)); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if f.book.Snapshot().Len() != 0 {
				t.Fatal("rejected payment was booked")
			}
			if inv, _ := f.invoices.Get(context.Background(), f.inv.ID); inv.Status != invoice.StatusPending {
				t.Fatal("rejected payment marked the invoice paid")
			}
		})
	}
}

func TestPayInvoiceCancelledBooksNothing(t *testing.T) {
	f := newFixture(t, processor.NewSimulated(time.Hour, 0))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := f.svc.PayInvoice(ctx, PayInput{InvoiceID: f.inv.ID, Channel: "bank"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if f.book.Snapshot().Len() != 0 {
		t.Fatal("cancelled payment was booked")
	}
	if inv, _ := f.invoices.Get(context.Background(), f.inv.ID); inv.Status != invoice.StatusPending {
		t.Fatal("cancelled payment marked the invoice paid")
	}
	if !f.svc.claim(f.inv.ID) {
		t.Fatal("cancelled checkout left the invoice claimed")
	}
}

func TestPayInvoiceRejectsConcurrentCheckout(t *testing.T) {
	proc := &blockingProcessor{entered: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, proc)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.PayInvoice(context.Background(), PayInput{InvoiceID: f.inv.ID, Channel: "paypal"})
		done <- err
	}()
	<-proc.entered

	if _, err := f.svc.PayInvoice(context.Background(), PayInput{InvoiceID: f.inv.ID, Channel: "paypal"}); !errors.Is(err, ErrPaymentInProgress) {
		t.Fatalf("expected in progress, got %v", err)
	}
	close(proc.release)
	if err := <-done; err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if f.book.Snapshot().Len() != 1 {
		t.Fatalf("expected one booked payment, got %d", f.book.Snapshot().Len())
	}
}

// pausingRepository parks the first Get after armed is set until resume is
// closed, holding the invoice state it read.
type pausingRepository struct {
	invoice.Repository
	armed  atomic.Bool
	once   sync.Once
	paused chan struct{}
	resume chan struct{}
}

func (r *pausingRepository) Get(ctx context.Context, id string) (invoice.Invoice, error) {
	inv, err := r.Repository.Get(ctx, id)
	if r.armed.Load() {
		first := false
		r.once.Do(func() { first = true })
		if first {
			close(r.paused)
			<-r.resume
		}
	}
	return inv, err
}

func TestPayInvoiceAfterOverlappingCheckoutSettles(t *testing.T) {
	ctx := context.Background()
	repo := &pausingRepository{
		Repository: invoice.NewMemoryRepository(),
		paused:     make(chan struct{}),
		resume:     make(chan struct{}),
	}
	invoices := invoice.NewService(repo, "")
	inv, err := invoices.Create(ctx, invoice.CreateInput{
		Amount:      50_000,
		Description: "Website Design for Acme Corp",
		ClientName:  "Acme Corp",
		ClientEmail: "billing@acme.test",
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	book := ledger.NewBook(nil, nil)
	svc := NewService(book, invoices, fees.Default(), processor.NewSimulated(0, 0), nil)
	repo.armed.Store(true)

	late := make(chan error, 1)
	go func() {
		_, err := svc.PayInvoice(ctx, PayInput{InvoiceID: inv.ID, Channel: "bank"})
		late <- err
	}()
	<-repo.paused

	if _, err := svc.PayInvoice(ctx, PayInput{InvoiceID: inv.ID, Channel: "bank"}); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	close(repo.resume)

	if err := <-late; !errors.Is(err, invoice.ErrAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}
	if n := book.Snapshot().Len(); n != 1 {
		t.Fatalf("invoice booked %d times", n)
	}
	if got := book.Snapshot().Balance(); got != 49_000 {
		t.Fatalf("expected balance 49000, got %d", got)
	}
}

func TestPayInvoiceRejectsFeeAboveAmount(t *testing.T) {
	f := newFixture(t, processor.NewSimulated(0, 0))
	schedule, err := fees.NewSchedule([]fees.Rule{{Kind: ledger.KindPayment, Channel: "bank", Type: fees.TypeFixed, Value: 60_000}})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	svc := NewService(f.book, f.invoices, schedule, processor.NewSimulated(0, 0), nil)
	if _, err := svc.PayInvoice(context.Background(), PayInput{InvoiceID: f.inv.ID, Channel: "bank"}); !errors.Is(err, ledger.ErrInvalidTransaction) {
		t.Fatalf("expected invalid transaction, got %v", err)
	}
	if f.book.Snapshot().Len() != 0 {
		t.Fatal("oversized fee was booked")
	}
}
