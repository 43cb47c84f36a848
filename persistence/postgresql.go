// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq" // PostgreSQL 驱动
	// SQLite 驱动
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore database/sql 实现的有序键值存储
type SQLStore struct {
	db     *sql.DB
	txOpts *sql.TxOptions
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*SQLStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	txOpts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	return newSQLStore(db, "BYTEA", txOpts)
}

// NewSQLite opens a cgo sqlite database. A single connection avoids
// SQLITE_BUSY between concurrent writers.
func NewSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return newSQLStore(db, "BLOB", nil)
}

func newSQLStore(db *sql.DB, blobType string, txOpts *sql.TxOptions) (*SQLStore, error) {
	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := initTables(ctx, db, blobType); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLStore{db: db, txOpts: txOpts}, nil
}

// initTables 初始化数据库表结构
func initTables(ctx context.Context, db *sql.DB, blobType string) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS kv_entries (
            collection VARCHAR(64) NOT NULL,
            entry_key %[1]s NOT NULL,
            value %[1]s NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (collection, entry_key)
        )
    `, blobType))
	return err
}

func (p *SQLStore) Get(ctx context.Context, key Key) ([]byte, error) {
	return (&sqlReader{q: p.db}).Get(ctx, key)
}

func (p *SQLStore) GetOptional(ctx context.Context, key Key) ([]byte, bool, error) {
	return (&sqlReader{q: p.db}).GetOptional(ctx, key)
}

func (p *SQLStore) ListKeys(ctx context.Context, collection string, prefix ...string) ([]Key, error) {
	return (&sqlReader{q: p.db}).ListKeys(ctx, collection, prefix...)
}

func (p *SQLStore) View(ctx context.Context, fn func(r Reader) error) error {
	tx, err := p.db.BeginTx(ctx, p.txOpts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlReader{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// Put 使用 UPSERT 操作
func (p *SQLStore) Put(ctx context.Context, key Key, value []byte) error {
	if err := key.validate(); err != nil {
		return err
	}
	query := `
        INSERT INTO kv_entries (collection, entry_key, value)
        VALUES ($1, $2, $3)
        ON CONFLICT (collection, entry_key)
        DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
    `
	_, err := p.db.ExecContext(ctx, query, key.Collection, encodeParts(key.Parts), value)
	return err
}

// Close 关闭数据库连接
func (p *SQLStore) Close() error {
	return p.db.Close()
}

type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlReader struct {
	q sqlQuerier
}

func (r *sqlReader) Get(ctx context.Context, key Key) ([]byte, error) {
	val, found, err := r.GetOptional(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	return val, nil
}

func (r *sqlReader) GetOptional(ctx context.Context, key Key) ([]byte, bool, error) {
	if err := key.validate(); err != nil {
		return nil, false, err
	}
	var data []byte
	query := `SELECT value FROM kv_entries WHERE collection = $1 AND entry_key = $2`
	err := r.q.QueryRowContext(ctx, query, key.Collection, encodeParts(key.Parts)).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (r *sqlReader) ListKeys(ctx context.Context, collection string, prefix ...string) ([]Key, error) {
	if err := validateParts(prefix); err != nil {
		return nil, err
	}
	query := `SELECT entry_key FROM kv_entries WHERE collection = $1`
	args := []any{collection}
	if len(prefix) > 0 {
		start := encodeParts(prefix)
		query += ` AND entry_key >= $2`
		args = append(args, start)
		if end := prefixUpperBound(start); end != nil {
			query += ` AND entry_key < $3`
			args = append(args, end)
		}
	}
	query += ` ORDER BY entry_key ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		keys = append(keys, Key{Collection: collection, Parts: decodeParts(raw)})
	}
	return keys, rows.Err()
}
