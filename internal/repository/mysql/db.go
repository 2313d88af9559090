package mysql

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

// sqlitePrefix 本地联调和测试用 sqlite，例如 sqlite:file:dev.db
const sqlitePrefix = "sqlite:"

type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     gormLogger.LogLevel
}

// Open 按 dsn 选择驱动并打开连接池
func Open(dsn string, opt Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, sqlitePrefix) {
		dialector = sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix))
	} else {
		dialector = mysql.Open(dsn)
	}
	if opt.LogLevel == 0 {
		opt.LogLevel = gormLogger.Warn
	}
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  opt.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opt.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opt.MaxOpenConns)
	}
	if opt.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opt.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// AutoMigrate 建表（开发阶段 OK）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Roadmap{},
		&model.Milestone{},
		&model.Transaction{},
		&model.LedgerAccount{},
		&model.LedgerOutbox{},
		&model.Post{},
		&model.PostLike{},
		&model.Comment{},
		&model.Profile{},
		&model.MentorshipRequest{},
		&model.Conversation{},
		&model.ConversationParticipant{},
		&model.Message{},
		&model.MoodEntry{},
	)
}

// domainErrs 已经归类过的业务错误，原样向上传
var domainErrs = []error{
	pkg.ErrNotFound,
	pkg.ErrConflict,
	pkg.ErrInvalidTransition,
	pkg.ErrInsufficientFunds,
	pkg.ErrInvalidArgument,
	pkg.ErrForbidden,
	pkg.ErrUpstreamFailure,
}

// translate 把 gorm 错误映射为业务错误，其余存储故障统一归为 ErrUpstreamFailure
func translate(err error, format string, args ...any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf(format+": %w", append(args, pkg.ErrNotFound)...)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf(format+": %w", append(args, pkg.ErrConflict)...)
	}
	for _, target := range domainErrs {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf(format+": %w: %w", append(args, err, pkg.ErrUpstreamFailure)...)
}
