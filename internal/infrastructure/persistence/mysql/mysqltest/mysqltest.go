// Package mysqltest 为仓储、用例与HTTP测试提供数据库
//
// New 返回单连接的内存SQLite，所有访问串行执行：并发测试在这里只能验证
// 结果不变量，分不清原子条件更新和先读后写的竞态。条件UPDATE的SQL形状由
// mysql包的sqlmock测试锁定，真正的并发由 MySQL 在设置 LIBRARY_TEST_MYSQL_DSN 后验证。
package mysqltest

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/logger"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
)

// EnvMySQLDSN 集成测试使用的MySQL连接串，例如
// root:password@tcp(127.0.0.1:3306)/library_test?charset=utf8mb4&parseTime=True&loc=UTC
const EnvMySQLDSN = "LIBRARY_TEST_MYSQL_DSN"

var nameReplacer = strings.NewReplacer("/", "_", " ", "_", "#", "_")

// New 每个测试独立的内存库（以测试名命名），已完成表迁移
// 单连接：事务内外的访问都在同一连接上串行执行
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", nameReplacer.Replace(t.Name()))
	gl := logger.NewGormLogger(zaptest.NewLogger(t), gormlogger.Warn)

	db, err := mysql.Open(sqlite.Open(dsn), gl)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, mysql.AutoMigrate(db))
	return db
}

// MySQL 连接真实MySQL，未设置 LIBRARY_TEST_MYSQL_DSN 时跳过测试
// 连接池允许多连接，表在开始时重建
func MySQL(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(EnvMySQLDSN)
	if dsn == "" {
		t.Skipf("%s 未设置，跳过MySQL集成测试", EnvMySQLDSN)
	}
	gl := logger.NewGormLogger(zaptest.NewLogger(t), gormlogger.Warn)

	db, err := mysql.Open(gormmysql.Open(dsn), gl)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrator().DropTable(
		&mysql.PaymentModel{},
		&mysql.BorrowingModel{},
		&mysql.BookModel{},
		&mysql.UserModel{},
	))
	require.NoError(t, mysql.AutoMigrate(db))
	return db
}
