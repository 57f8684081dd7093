package repository

import (
	"context"
	stderrors "errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rentalhub/pkg/errors"
	"rentalhub/pkg/utils"
)

// transactDocument runs fn against the document at ref inside a Firestore transaction.
// A missing document commits nothing and yields (nil, nil). Errors returned by fn
// are passed through; anything else is reported as failureMsg.
func transactDocument[T any](
	ctx context.Context,
	client *firestore.Client,
	ref *firestore.DocumentRef,
	fn func(*T) error,
	prepare func(*T),
	failureMsg string,
) (*T, error) {
	var committed *T
	err := client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		committed = nil

		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return err
		}

		value := new(T)
		if err := doc.DataTo(value); err != nil {
			return err
		}

		if err := fn(value); err != nil {
			return err
		}
		if prepare != nil {
			prepare(value)
		}

		if err := tx.Set(ref, value); err != nil {
			return err
		}
		committed = value
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal(failureMsg, err)
	}

	return committed, nil
}

// window pages over documents already fetched for the total count.
func window(n, offset, limit int) (int, int) {
	return utils.Window(n, offset, limit)
}
