package mysql

import (
	"net"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/simpledb/internal/database"
	"github.com/koustreak/simpledb/internal/errs"
)

const defaultPort = 3306

// buildDSN constructs the go-sql-driver DSN, e.g.
// user:pass@tcp(host:3306)/dbname?charset=utf8mb4&parseTime=true
func buildDSN(cfg *database.Config) (string, error) {
	if cfg.Host == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "mysql: host is required")
	}
	if cfg.User == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "mysql: username (uname) is required")
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	mc := gomysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.InterpolateParams = cfg.EmulatePrepares
	mc.Timeout = cfg.ConnectTimeout
	if cfg.Charset != "" {
		if err := mc.Apply(gomysql.Charset(cfg.Charset, "")); err != nil {
			return "", errs.Wrap(errs.ErrKindInvalidInput, "mysql: invalid charset", err)
		}
	}

	return mc.FormatDSN(), nil
}
