package db

import (
	"fmt"
	"net"
	"strconv"

	sqldriver "github.com/go-sql-driver/mysql"
	"github.com/zulandar/signalbox/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN for the audit archive.
func DSN(host string, port int, user, database string) string {
	c := sqldriver.NewConfig()
	c.User = user
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	c.DBName = database
	c.ParseTime = true
	return c.FormatDSN()
}

// Connect opens a GORM connection for the configured archive driver.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	var target string
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
		target = cfg.Path
	case "mysql":
		dialector = mysql.Open(DSN(cfg.Host, cfg.Port, cfg.User, cfg.Name))
		target = fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s: %w", target, err)
	}
	return db, nil
}
