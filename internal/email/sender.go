// Package email delivers outbound mail over SMTP.
package email

import "context"

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte // raw file bytes
	FileName string // e.g. "devis-D-00042.pdf"
	MIMEType string // e.g. "application/pdf"
}

// Message is one outbound email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
