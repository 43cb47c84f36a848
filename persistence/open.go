package persistence

import (
	"fmt"

	"github.com/wfunc/gamingpool/config"
)

// Open 根据配置打开存储
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "badger":
		return NewBadgerStore(WithDataDir(cfg.Badger.DataDir), WithGC(cfg.Badger.GC))
	case "badger-memory":
		return NewBadgerStore()
	case "gorm-postgres":
		pg := cfg.Postgres
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "gorm-sqlite":
		return NewGormSQLite(cfg.SQLite.Path)
	case "sql-postgres":
		pg := cfg.Postgres
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "sql-sqlite":
		return NewSQLite(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
