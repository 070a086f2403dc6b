// Package mysql 是基于 MySQL 的关系型存储实现，集合字段落在关联表中
package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strings"
	"time"

	"social-backend/internal/repository/interfaces"
	"social-backend/internal/util"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// Open 打开数据库连接并配置连接池
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	util.Logger.Info("数据库连接成功")
	return db, nil
}

// EnsureSchema 逐条执行建表语句
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			util.Logger.Error("建表失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// Store 把三个存储绑定到同一个连接池上
type Store struct {
	db *sql.DB
}

// NewStore 创建存储
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close 关闭连接池
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Users() interfaces.UserRepository { return NewUserRepository(s.db) }

func (s *Store) Posts() interfaces.PostRepository { return NewPostRepository(s.db) }

func (s *Store) Notifications() interfaces.NotificationRepository {
	return NewNotificationRepository(s.db)
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// isDuplicate 判断是否违反唯一约束
func isDuplicate(err error) bool {
	var me *mysqldriver.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// inClause 生成 IN 子句的占位符与参数
func inClause(ids []string) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")", args
}
