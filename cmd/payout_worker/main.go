package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/invest-payout-engine/config"
	"github.com/oksasatya/invest-payout-engine/internal/application"
	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
	"github.com/oksasatya/invest-payout-engine/pkg/mailer"
	mailtpl "github.com/oksasatya/invest-payout-engine/pkg/mailer/templates"
)

var (
	errMalformed = errors.New("malformed payout event")
	errNoAddress = errors.New("payout event has no recipient")
)

type worker struct {
	cfg    *config.Config
	sender mailer.Sender
	log    *logrus.Logger
}

// buildJob turns a payout event into a rendered e-mail.
func (w *worker) buildJob(body []byte) (mailer.EmailJob, error) {
	var evt application.PayoutEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return mailer.EmailJob{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if evt.InvestmentID == "" {
		return mailer.EmailJob{}, errMalformed
	}
	if evt.OwnerEmail == "" {
		return mailer.EmailJob{}, errNoAddress
	}

	name, data := mailtpl.NewPayoutData(w.cfg, evt.OwnerName, evt.OwnerEmail, evt.Status == string(entity.StatusCompleted), mailtpl.Payout{
		InvestmentID:     evt.InvestmentID,
		Amount:           evt.Amount,
		Month:            evt.Month,
		Year:             evt.Year,
		Rate:             evt.Rate,
		TotalReturnsPaid: evt.TotalReturnsPaid,
		ProcessedAt:      evt.ProcessedAt,
		NextPaymentDate:  evt.NextPaymentDate,
	})
	job := mailer.EmailJob{To: evt.OwnerEmail, Template: name, Data: data}
	mailer.EnsureRecipient(&job)

	subject, text, html, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return mailer.EmailJob{}, fmt.Errorf("render %s: %w", job.Template, err)
	}
	job.Subject, job.Text, job.HTML = subject, text, html
	return job, nil
}

// handle reports whether the message should be requeued.
func (w *worker) handle(ctx context.Context, body []byte) (requeue bool, err error) {
	job, err := w.buildJob(body)
	if err != nil {
		return false, err
	}
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := w.sender.Send(c, job.To, job.Subject, job.Text, job.HTML); err != nil {
		return true, fmt.Errorf("send: %w", err)
	}
	w.log.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Debug("payout e-mail sent")
	return false, nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-payout-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; payout worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQPayoutQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	consumer, msgs, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQPayoutQueue, 16)
	if err != nil {
		log.Fatalf("amqp consume: %v", err)
	}
	defer consumer.Close()

	w := &worker{cfg: cfg, sender: mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), log: logger}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			requeue, err := w.handle(ctx, msg.Body)
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, errNoAddress):
				logger.WithField("message_id", msg.MessageId).Debug("payout event without recipient dropped")
				_ = msg.Ack(false)
			default:
				helpers.LogError(logger, "payout e-mail failed", err, logrus.Fields{"message_id": msg.MessageId, "requeue": requeue})
				_ = msg.Nack(false, requeue)
			}
		}
		close(done)
	}()

	helpers.LogInfo(logger, "payout worker listening", logrus.Fields{"queue": cfg.RabbitMQPayoutQueue})
	<-ctx.Done()
	logger.Info("shutting down...")
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	os.Exit(0)
}
