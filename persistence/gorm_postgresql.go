// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wfunc/gamingpool/models"
)

// GormStore 使用GORM的有序键值存储
type GormStore struct {
	db     *gorm.DB
	txOpts *sql.TxOptions
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
	// 快照读
	txOpts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	return newGormStore(postgres.Open(dsn), txOpts)
}

// NewGormSQLite opens a pure-Go sqlite database through GORM.
func NewGormSQLite(path string) (*GormStore, error) {
	return newGormStore(sqlite.Open(path), nil)
}

func newGormStore(dialector gorm.Dialector, txOpts *sql.TxOptions) (*GormStore, error) {
	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,         // 禁用彩色打印
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormKVEntry{}); err != nil {
		return nil, err
	}

	return &GormStore{db: db, txOpts: txOpts}, nil
}

func (p *GormStore) Get(ctx context.Context, key Key) ([]byte, error) {
	return (&gormReader{db: p.db}).Get(ctx, key)
}

func (p *GormStore) GetOptional(ctx context.Context, key Key) ([]byte, bool, error) {
	return (&gormReader{db: p.db}).GetOptional(ctx, key)
}

func (p *GormStore) ListKeys(ctx context.Context, collection string, prefix ...string) ([]Key, error) {
	return (&gormReader{db: p.db}).ListKeys(ctx, collection, prefix...)
}

// View 在只读事务中执行
func (p *GormStore) View(ctx context.Context, fn func(r Reader) error) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormReader{db: tx})
	}, p.txOpts)
}

// Put 使用UPSERT操作
func (p *GormStore) Put(ctx context.Context, key Key, value []byte) error {
	if err := key.validate(); err != nil {
		return err
	}
	entry := models.GormKVEntry{
		Collection: key.Collection,
		Key:        encodeParts(key.Parts),
		Value:      value,
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Close 关闭数据库连接
func (p *GormStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormReader struct {
	db *gorm.DB
}

func (r *gormReader) Get(ctx context.Context, key Key) ([]byte, error) {
	val, found, err := r.GetOptional(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	return val, nil
}

func (r *gormReader) GetOptional(ctx context.Context, key Key) ([]byte, bool, error) {
	if err := key.validate(); err != nil {
		return nil, false, err
	}
	var entry models.GormKVEntry
	err := r.db.WithContext(ctx).
		Where("collection = ? AND entry_key = ?", key.Collection, encodeParts(key.Parts)).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Value, true, nil
}

func (r *gormReader) ListKeys(ctx context.Context, collection string, prefix ...string) ([]Key, error) {
	if err := validateParts(prefix); err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&models.GormKVEntry{}).Where("collection = ?", collection)
	if len(prefix) > 0 {
		start := encodeParts(prefix)
		q = q.Where("entry_key >= ?", start)
		if end := prefixUpperBound(start); end != nil {
			q = q.Where("entry_key < ?", end)
		}
	}

	rows, err := q.Select("entry_key").Order("entry_key ASC").Rows()
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
