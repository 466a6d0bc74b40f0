package secondary

import "context"

// Transactor runs fn inside one database transaction. Repositories called with the
// context handed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
