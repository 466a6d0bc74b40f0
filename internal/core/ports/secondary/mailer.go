package secondary

import "context"

type Mailer interface {
	Send(ctx context.Context, to string, subject string, body string) error
}
