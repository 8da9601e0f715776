package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
)

const (
	MysqlCharset = "utf8mb4"
	// 主键冲突
	mysqlErrDupEntry = 1062
)

const createTableSql = `CREATE TABLE IF NOT EXISTS %s (
	name VARCHAR(255) NOT NULL PRIMARY KEY,
	endpoint VARCHAR(255) NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// MysqlRegistry 用主键唯一约束实现bind-once
type MysqlRegistry struct {
	db    *sql.DB
	table string

	initOnce sync.Once
	initErr  error
}

func NewMysqlRegistry(addr string, username string, password string, database string, table string) (*MysqlRegistry, error) {
	conf := mysql.NewConfig()
	conf.User = username
	conf.Passwd = password
	conf.Net = "tcp"
	conf.Addr = addr
	conf.DBName = database
	conf.Params = map[string]string{"charset": MysqlCharset}

	db, err := sql.Open("mysql", conf.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	return NewMysqlRegistryWithDB(db, table), nil
}

func NewMysqlRegistryWithDB(db *sql.DB, table string) *MysqlRegistry {
	if table == "" {
		table = "actor_registry"
	}
	return &MysqlRegistry{
		db:    db,
		table: table,
	}
}

func (reg *MysqlRegistry) lazyInit(ctx context.Context) error {
	reg.initOnce.Do(func() {
		_, reg.initErr = reg.db.ExecContext(ctx, fmt.Sprintf(createTableSql, reg.table))
	})
	return reg.initErr
}

func (reg *MysqlRegistry) Bind(ctx context.Context, name string, endpoint string) error {
	if err := reg.lazyInit(ctx); err != nil {
		return err
	}

	_, err := reg.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (name, endpoint) VALUES (?, ?)", reg.table), name, endpoint)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDupEntry {
			return ErrAlreadyBound
		}
		return err
	}
	return nil
}

func (reg *MysqlRegistry) Lookup(ctx context.Context, name string) (string, error) {
	if err := reg.lazyInit(ctx); err != nil {
		return "", err
	}

	var endpoint string
	err := reg.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT endpoint FROM %s WHERE name = ?", reg.table), name).Scan(&endpoint)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotBound
	}
	return endpoint, err
}

func (reg *MysqlRegistry) Unbind(ctx context.Context, name string) error {
	if err := reg.lazyInit(ctx); err != nil {
		return err
	}
	_, err := reg.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE name = ?", reg.table), name)
	return err
}

func (reg *MysqlRegistry) List(ctx context.Context, prefix string) (map[string]string, error) {
	if err := reg.lazyInit(ctx); err != nil {
		return nil, err
	}

	pattern := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix) + "%"
	rows, err := reg.db.QueryContext(ctx,
		fmt.Sprintf("SELECT name, endpoint FROM %s WHERE name LIKE ?", reg.table), pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make(map[string]string)
	for rows.Next() {
		var name, endpoint string
		if err := rows.Scan(&name, &endpoint); err != nil {
			return nil, err
		}
		ret[name] = endpoint
	}
	return ret, rows.Err()
}

func (reg *MysqlRegistry) Close() error {
	return reg.db.Close()
}
