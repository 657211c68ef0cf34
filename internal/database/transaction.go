package database

import (
	"context"
	"errors"

	"servicehub/internal/common"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs fn inside one atomic transaction. fn must use the ctx it receives
// for every write that belongs to the transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoTransactor scopes transactions on a Mongo client session.
type MongoTransactor struct {
	client *mongo.Client
}

func NewMongoTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

// WithTransaction starts a session, runs fn and commits. On error the transaction is aborted
// and the error returned. The session is ended on every path, including a panic in fn,
// which aborts any transaction still open.
//
// Domain errors raised by fn (not found, already completed, malformed rule, validation,
// forbidden) come back unchanged. Anything else is wrapped in a TransactionError.
func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return common.TransactionError(err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return WrapTransactionError(err)
}

// WrapTransactionError passes domain errors through and wraps anything else in a TransactionError.
func WrapTransactionError(err error) error {
	if err == nil {
		return nil
	}
	var e *common.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case common.KindNotFound, common.KindAlreadyCompleted, common.KindMalformedRule,
			common.KindValidation, common.KindForbidden, common.KindTransaction:
			return err
		}
	}
	return common.TransactionError(err)
}
