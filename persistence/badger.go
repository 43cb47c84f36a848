// persistence/badger.go
package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/wfunc/gamingpool/logger"
)

const badgerGCInterval = 5 * time.Minute

// BadgerStore 基于badger的有序键值存储
type BadgerStore struct {
	db        *badger.DB
	dataDir   string
	gcEnabled bool
	gcTicker  *time.Ticker
	gcStopCh  chan struct{}
	gcDoneCh  chan struct{}
}

type BadgerOption func(*BadgerStore)

// WithDataDir stores data on disk. Without it the store is in-memory.
func WithDataDir(dir string) BadgerOption {
	return func(s *BadgerStore) {
		s.dataDir = dir
	}
}

// WithGC enables periodic value log garbage collection for disk stores.
func WithGC(enabled bool) BadgerOption {
	return func(s *BadgerStore) {
		s.gcEnabled = enabled
	}
}

// NewBadgerStore 打开badger数据库
func NewBadgerStore(opts ...BadgerOption) (*BadgerStore, error) {
	s := &BadgerStore{}
	for _, opt := range opts {
		opt(s)
	}

	var badgerOpts badger.Options
	if s.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
		s.gcEnabled = false
	} else {
		if _, err := os.Stat(s.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(s.dataDir).WithCompression(options.Snappy)
	}
	badgerOpts = badgerOpts.
		WithLogger(newBadgerLogger(logger.Log)).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	s.db = db

	if s.gcEnabled {
		s.gcTicker = time.NewTicker(badgerGCInterval)
		s.gcStopCh = make(chan struct{})
		s.gcDoneCh = make(chan struct{})
		go s.runGC()
	}
	return s, nil
}

func (s *BadgerStore) runGC() {
	defer close(s.gcDoneCh)
	for {
		select {
		case <-s.gcTicker.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if err == nil {
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					logger.Log.Warnw("badger value log GC failed", "error", err)
				}
				break
			}
		case <-s.gcStopCh:
			return
		}
	}
}

func (s *BadgerStore) Get(ctx context.Context, key Key) ([]byte, error) {
	var val []byte
	err := s.View(ctx, func(r Reader) error {
		var err error
		val, err = r.Get(ctx, key)
		return err
	})
	return val, err
}

func (s *BadgerStore) GetOptional(ctx context.Context, key Key) ([]byte, bool, error) {
	var (
		val   []byte
		found bool
	)
	err := s.View(ctx, func(r Reader) error {
		var err error
		val, found, err = r.GetOptional(ctx, key)
		return err
	})
	return val, found, err
}

func (s *BadgerStore) ListKeys(ctx context.Context, collection string, prefix ...string) ([]Key, error) {
	var keys []Key
	err := s.View(ctx, func(r Reader) error {
		var err error
		keys, err = r.ListKeys(ctx, collection, prefix...)
		return err
	})
	return keys, err
}

func (s *BadgerStore) View(ctx context.Context, fn func(r Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerReader{txn: txn})
	})
}

func (s *BadgerStore) Put(ctx context.Context, key Key, value []byte) error {
	if err := key.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(key.Collection, key.Parts), value)
	})
}

// Close 关闭数据库
func (s *BadgerStore) Close() error {
	if s.gcTicker != nil {
		s.gcTicker.Stop()
		close(s.gcStopCh)
		<-s.gcDoneCh
		s.gcTicker = nil
	}
	return s.db.Close()
}

type badgerReader struct {
	txn *badger.Txn
}

func (r *badgerReader) Get(ctx context.Context, key Key) ([]byte, error) {
	val, found, err := r.GetOptional(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	return val, nil
}

func (r *badgerReader) GetOptional(ctx context.Context, key Key) ([]byte, bool, error) {
	if err := key.validate(); err != nil {
		return nil, false, err
	}
	item, err := r.txn.Get(badgerKey(key.Collection, key.Parts))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *badgerReader) ListKeys(ctx context.Context, collection string, prefix ...string) ([]Key, error) {
	if err := validateParts(prefix); err != nil {
		return nil, err
	}
	collPrefix := badgerKey(collection, nil)
	it := r.txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: false,
		Prefix:         badgerKey(collection, prefix),
	})
	defer it.Close()

	var keys []Key
	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := it.Item().KeyCopy(nil)
		keys = append(keys, Key{
			Collection: collection,
			Parts:      decodeParts(raw[len(collPrefix):]),
		})
	}
	return keys, nil
}

func badgerKey(collection string, parts []string) []byte {
	return append([]byte(collection+"/"), encodeParts(parts)...)
}

// badgerLogger adapts the zap logger to badger.Logger
type badgerLogger struct {
	log *zap.SugaredLogger
}

func newBadgerLogger(log *zap.SugaredLogger) *badgerLogger {
	return &badgerLogger{log: log.With("component", "badger")}
}

func (l *badgerLogger) Errorf(msg string, args ...interface{})   { l.log.Errorf(msg, args...) }
func (l *badgerLogger) Warningf(msg string, args ...interface{}) { l.log.Warnf(msg, args...) }
func (l *badgerLogger) Infof(msg string, args ...interface{})    { l.log.Infof(msg, args...) }
func (l *badgerLogger) Debugf(msg string, args ...interface{})   { l.log.Debugf(msg, args...) }
