package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, err
			}
			if info, err = os.Stat(filePath); err != nil {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "badger")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// SetAll writes every key/value pair produced by next, committing whenever
// the open transaction grows past Badger's size limit. next returns false
// when it has no more pairs. A cancelled context discards the open
// transaction instead of committing it.
func (b *Backend) SetAll(ctx context.Context, next func() (key, value []byte, ok bool)) error {
	w := b.newTxnWriter()
	defer w.discard()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, value, ok := next()
		if !ok {
			break
		}
		if err := w.set(key, value); err != nil {
			return err
		}
	}
	return w.commit()
}

// txnWriter wraps a write transaction that is committed and reopened when it
// grows past Badger's size limit. Everything written before commit lands in
// one transaction unless that limit is reached.
type txnWriter struct {
	db *badger.DB
	tx *badger.Txn
}

func (b *Backend) newTxnWriter() *txnWriter {
	return &txnWriter{db: b.db, tx: b.db.NewTransaction(true)}
}

func (w *txnWriter) set(key, value []byte) error {
	return w.apply(func(tx *badger.Txn) error { return tx.Set(key, value) })
}

func (w *txnWriter) delete(key []byte) error {
	return w.apply(func(tx *badger.Txn) error { return tx.Delete(key) })
}

func (w *txnWriter) apply(op func(tx *badger.Txn) error) error {
	err := op(w.tx)
	if errors.Is(err, badger.ErrTxnTooBig) {
		if err := w.tx.Commit(); err != nil {
			return err
		}
		w.tx = w.db.NewTransaction(true)
		err = op(w.tx)
	}
	return err
}

func (w *txnWriter) commit() error {
	return w.tx.Commit()
}

// discard is safe to call after commit.
func (w *txnWriter) discard() {
	w.tx.Discard()
}
