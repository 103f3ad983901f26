package shared

import "context"

// TxManager runs a function inside a single atomic persistence transaction.
// Repository calls made with the context passed to fn join that transaction;
// any error returned by fn rolls the whole unit back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
