package notify

import (
	"context"
	"fmt"
	"log"
)

// Direct renders and mails the confirmation in-process.
type Direct struct {
	mailer Mailer
	shop   string
	ops    string
}

func NewDirect(mailer Mailer, shop, opsMailbox string) *Direct {
	return &Direct{mailer: mailer, shop: shop, ops: opsMailbox}
}

// OrderPaid mails the purchaser with the operations mailbox in Cc. A broken invoice
// only drops the attachment.
func (d *Direct) OrderPaid(ctx context.Context, c Confirmation) error {
	if c.Email == "" {
		return fmt.Errorf("order %s: purchaser has no email", c.Order.Number)
	}
	body, err := RenderConfirmation(d.shop, c)
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	msg := Message{
		To:      []string{c.Email},
		Subject: fmt.Sprintf("%s: order %s confirmed", d.shop, c.Order.Number),
		HTML:    body,
	}
	if d.ops != "" {
		msg.Cc = []string{d.ops}
	}
	if pdf, err := Invoice(d.shop, c); err != nil {
		log.Printf("[notify] invoice order=%s: %v", c.Order.Number, err)
	} else {
		msg.Attachments = []Attachment{{Name: "invoice-" + c.Order.Number + ".pdf", Data: pdf}}
	}
	if err := d.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	log.Printf("[notify] order=%s confirmation sent to=%s", c.Order.Number, c.Email)
	return nil
}
