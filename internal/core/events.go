package core

// Domain event topics. Payloads are published after the owning transaction commits.
const (
	TopicOrderCreated   = "order:created"   // payload: *Order
	TopicInvoiceCreated = "invoice:created" // payload: *Invoice
	TopicInvoiceSent    = "invoice:sent"    // payload: *Invoice
)

// Publisher fans out domain events. EventBus.Bus satisfies it.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

func publish(p Publisher, topic string, payload any) {
	if p == nil {
		return
	}
	p.Publish(topic, payload)
}
