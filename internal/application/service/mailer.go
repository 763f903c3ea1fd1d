package service

import "context"

type Mail struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}
