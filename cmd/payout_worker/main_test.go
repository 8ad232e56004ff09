package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/invest-payout-engine/config"
	"github.com/oksasatya/invest-payout-engine/internal/application"
)

type fakeSender struct {
	to, subject, text, html string
	err                     error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	f.to, f.subject, f.text, f.html = to, subject, text, html
	return f.err
}

func newWorker(s *fakeSender) *worker {
	return &worker{cfg: &config.Config{CompanyName: "Acme", PayoutTimezone: "UTC"}, sender: s, log: logrus.New()}
}

func eventBody(t *testing.T, evt application.PayoutEvent) []byte {
	t.Helper()
	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleSendsPayoutEmail(t *testing.T) {
	s := &fakeSender{}
	w := newWorker(s)
	next := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	body := eventBody(t, application.PayoutEvent{
		InvestmentID: "inv_1", OwnerEmail: "ada@example.com", OwnerName: "Ada",
		Amount: 3000, Month: 1, Year: 1, Rate: "0.03", TotalReturnsPaid: 3000,
		Status: "active", NextPaymentDate: &next, ProcessedAt: next.AddDate(0, -1, 0),
	})
	requeue, err := w.handle(context.Background(), body)
	if err != nil || requeue {
		t.Fatalf("handle: requeue=%v err=%v", requeue, err)
	}
	if s.to != "ada@example.com" || !strings.Contains(s.subject, "payout 1 of 36") || !strings.Contains(s.text, "3,000") {
		t.Fatalf("unexpected mail: to=%s subject=%q", s.to, s.subject)
	}
}

func TestHandleCompletionTemplate(t *testing.T) {
	s := &fakeSender{}
	body := eventBody(t, application.PayoutEvent{InvestmentID: "inv_1", OwnerEmail: "ada@example.com", Amount: 4000, Month: 36, Year: 3, Rate: "0.04", TotalReturnsPaid: 126000, Status: "completed"})
	if _, err := newWorker(s).handle(context.Background(), body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(s.subject, "complete") || !strings.Contains(s.text, "126,000") {
		t.Fatalf("expected completion mail, got %q", s.subject)
	}
}

func TestHandleFailures(t *testing.T) {
	w := newWorker(&fakeSender{})
	if requeue, err := w.handle(context.Background(), []byte("{")); !errors.Is(err, errMalformed) || requeue {
		t.Fatalf("malformed: requeue=%v err=%v", requeue, err)
	}
	if _, err := w.handle(context.Background(), eventBody(t, application.PayoutEvent{InvestmentID: "inv_1"})); !errors.Is(err, errNoAddress) {
		t.Fatalf("no address: %v", err)
	}

	failing := newWorker(&fakeSender{err: errors.New("mailgun 503")})
	requeue, err := failing.handle(context.Background(), eventBody(t, application.PayoutEvent{InvestmentID: "inv_1", OwnerEmail: "a@b.c", Rate: "0.03"}))
	if err == nil || !requeue {
		t.Fatalf("send failure should requeue: requeue=%v err=%v", requeue, err)
	}
}
