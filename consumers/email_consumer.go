package consumers

import (
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"bazario/config"
	"bazario/mailer"
	"bazario/models"
)

// StartEmailConsumer dispatches queued email events. A message that cannot
// be delivered is rejected without requeue and lands in the dead-letter
// queue; the request that produced it already succeeded, so failures stay
// here.
func StartEmailConsumer(ch *amqp.Channel, cfg *config.Config, sender mailer.Sender) error {
	log := logrus.WithField("component", "email_consumer")

	msgs, err := ch.Consume(
		cfg.EventQueue,
		"bazario-mailer", // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			processEmailMessage(msg, cfg, sender, log)
		}
	}()

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"bazario-mailer-dlq",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for msg := range dlqMsgs {
			log.WithField("kind", msg.Type).Warnf("dead letter: %s", msg.Body)
			_ = msg.Ack(false)
		}
	}()

	return nil
}

func processEmailMessage(msg amqp.Delivery, cfg *config.Config, sender mailer.Sender, log *logrus.Entry) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("recovered from panic in email dispatch: %v", r)
			_ = msg.Nack(false, false)
		}
	}()

	var ev models.EmailEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		log.WithError(err).Error("malformed email event")
		_ = msg.Nack(false, false)
		return
	}

	built, err := mailer.Build(ev, cfg.VerifyBaseURL)
	if err != nil {
		log.WithError(err).WithField("kind", ev.Kind).Error("cannot build email")
		_ = msg.Nack(false, false)
		return
	}

	if err := sender.Send(ev.To, built.Subject, built.Text, built.HTML); err != nil {
		log.WithError(err).WithField("to", ev.To).Error("email delivery failed")
		_ = msg.Nack(false, false)
		return
	}

	log.WithFields(logrus.Fields{"kind": ev.Kind, "to": ev.To}).Info("email dispatched")
	_ = msg.Ack(false)
}
