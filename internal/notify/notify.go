// Package notify mails customers when orders are booked and invoices go out.
package notify

import (
	"fmt"
	"strings"

	"photo-agency/internal/core"
	"photo-agency/internal/logger"

	"github.com/asaskevich/EventBus"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Message is a plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a Message.
type Sender interface {
	Send(msg Message) error
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender returns a sender for the given relay.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender only logs messages. Used when no relay is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{log: logger.WithComponent("mail")}
}

func (s *LogSender) Send(msg Message) error {
	s.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail not sent: no SMTP relay configured")
	return nil
}

// Notifier turns domain events into customer mail.
type Notifier struct {
	sender Sender
	log    zerolog.Logger
}

func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender, log: logger.WithComponent("notify")}
}

// Subscribe registers the notifier on bus. Handlers run asynchronously so that
// a slow relay never holds up the request that raised the event.
func (n *Notifier) Subscribe(bus EventBus.Bus) error {
	if err := bus.SubscribeAsync(core.TopicOrderCreated, n.onOrderCreated, false); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", core.TopicOrderCreated, err)
	}
	if err := bus.SubscribeAsync(core.TopicInvoiceSent, n.onInvoiceSent, false); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", core.TopicInvoiceSent, err)
	}
	return nil
}

func (n *Notifier) onOrderCreated(o *core.Order) {
	if o.CustomerEmail == "" {
		return
	}
	n.deliver(OrderConfirmation(o))
}

func (n *Notifier) onInvoiceSent(inv *core.Invoice) {
	if inv.CustomerEmail == "" {
		n.log.Warn().Str("invoice", inv.InvoiceNumber).Msg("customer has no email; invoice not mailed")
		return
	}
	n.deliver(InvoiceMessage(inv))
}

func (n *Notifier) deliver(msg Message) {
	if err := n.sender.Send(msg); err != nil {
		n.log.Error().Err(err).Str("subject", msg.Subject).Msg("notification failed")
	}
}

// OrderConfirmation builds the booking confirmation for an order.
func OrderConfirmation(o *core.Order) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", o.CustomerName)
	fmt.Fprintf(&b, "We have registered order %s", o.OrderNumber)
	if o.PropertyAddress != "" {
		fmt.Fprintf(&b, " for %s", o.PropertyAddress)
	}
	b.WriteString(".\n")
	if o.ScheduledDate != nil {
		fmt.Fprintf(&b, "Scheduled: %s\n", o.ScheduledDate.Format("2006-01-02 15:04"))
	}
	b.WriteString("\n")
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "  %d x %-30s %12s\n", l.Quantity, l.ProductName, l.TotalPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal ex. VAT: %s\nVAT: %s\nTotal: %s\n",
		o.TotalAmount.StringFixed(2), o.VATAmount.StringFixed(2), o.TotalAmount.Add(o.VATAmount).StringFixed(2))

	return Message{
		To:      o.CustomerEmail,
		Subject: fmt.Sprintf("Order confirmation %s", o.OrderNumber),
		Body:    b.String(),
	}
}

// InvoiceMessage builds the mail that accompanies a sent invoice.
func InvoiceMessage(inv *core.Invoice) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", inv.CustomerName)
	fmt.Fprintf(&b, "Invoice %s", inv.InvoiceNumber)
	if inv.IsPeriodInvoice() {
		fmt.Fprintf(&b, " covers %d orders in %s", inv.OrderCount, inv.PeriodStart.Format("January 2006"))
	}
	b.WriteString(".\n\n")
	for _, l := range inv.Lines {
		fmt.Fprintf(&b, "  %d x %-40s %12s\n", l.Quantity, l.Description, l.TotalPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\nVAT: %s\nTotal due: %s\nDue date: %s\n",
		inv.Subtotal.StringFixed(2), inv.VATAmount.StringFixed(2), inv.Total.StringFixed(2), inv.DueDate.Format("2006-01-02"))

	return Message{
		To:      inv.CustomerEmail,
		Subject: fmt.Sprintf("Invoice %s", inv.InvoiceNumber),
		Body:    b.String(),
	}
}
