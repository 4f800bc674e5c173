// Package config loads the simpledb configuration file.
//
// The file has four sections. INI is the classic form:
//
//	[database]
//	dbtype = mysql
//	host = localhost
//	dbname = shop
//	uname = app
//	pwd = secret
//	charset = utf8mb4
//	emulate = false
//
//	[database_log]
//	dir = logs
//	name_prefix = db-
//	name_suffix =
//	ext = json
//	enable = true
//
// Files ending in .yaml or .yml are read as YAML with the same section and
// key names. Every value is a string; flags are on only for the literal
// "true".
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-ini/ini"
	"github.com/koustreak/simpledb/internal/audit"
	"github.com/koustreak/simpledb/internal/database"
	"github.com/koustreak/simpledb/internal/errs"
	"github.com/koustreak/simpledb/internal/filestore"
	"github.com/koustreak/simpledb/internal/logger"
	"go.yaml.in/yaml/v3"
)

// Environment variables that override secrets from the file.
const (
	EnvDBPassword    = "SIMPLEDB_DB_PWD"
	EnvArchiveSecret = "SIMPLEDB_ARCHIVE_SECRET_KEY"
)

// DefaultPath is the file used when no --config flag is given.
const DefaultPath = "database.config.ini"

const defaultLogDir = "logs"

type DatabaseSection struct {
	DBType         string `ini:"dbtype" yaml:"dbtype"`
	Charset        string `ini:"charset" yaml:"charset"`
	Host           string `ini:"host" yaml:"host"`
	Port           string `ini:"port" yaml:"port"`
	User           string `ini:"uname" yaml:"uname"`
	Password       string `ini:"pwd" yaml:"pwd"`
	DBName         string `ini:"dbname" yaml:"dbname"`
	Emulate        string `ini:"emulate" yaml:"emulate"`
	ConnectTimeout string `ini:"connect_timeout" yaml:"connect_timeout"`
}

type LogSection struct {
	Dir        string `ini:"dir" yaml:"dir"`
	NamePrefix string `ini:"name_prefix" yaml:"name_prefix"`
	NameSuffix string `ini:"name_suffix" yaml:"name_suffix"`
	Ext        string `ini:"ext" yaml:"ext"`
	Enable     string `ini:"enable" yaml:"enable"`
}

type LoggerSection struct {
	Level  string `ini:"level" yaml:"level"`
	Format string `ini:"format" yaml:"format"`
}

type ArchiveSection struct {
	Enable    string `ini:"enable" yaml:"enable"`
	Endpoint  string `ini:"endpoint" yaml:"endpoint"`
	AccessKey string `ini:"access_key" yaml:"access_key"`
	SecretKey string `ini:"secret_key" yaml:"secret_key"`
	UseSSL    string `ini:"use_ssl" yaml:"use_ssl"`
	Region    string `ini:"region" yaml:"region"`
	Bucket    string `ini:"bucket" yaml:"bucket"`
	Prefix    string `ini:"prefix" yaml:"prefix"`
}

// File is the raw, string-typed content of a configuration file.
type File struct {
	Database DatabaseSection `ini:"database" yaml:"database"`
	Log      LogSection      `ini:"database_log" yaml:"database_log"`
	Logger   LoggerSection   `ini:"logger" yaml:"logger"`
	Archive  ArchiveSection  `ini:"archive" yaml:"archive"`

	// dir is the directory of the file; relative paths resolve against it.
	dir string
}

// Load reads path and applies environment overrides.
func Load(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid config path "+path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "config file not found: "+path, err)
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file "+path, err)
	}

	f := &File{dir: filepath.Dir(abs)}

	switch strings.ToLower(filepath.Ext(abs)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, f); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid YAML in "+path, err)
		}
	default:
		src, err := ini.Load(data)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid INI in "+path, err)
		}
		if err := src.MapTo(f); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid INI in "+path, err)
		}
	}

	if v, ok := os.LookupEnv(EnvDBPassword); ok {
		f.Database.Password = v
	}
	if v, ok := os.LookupEnv(EnvArchiveSecret); ok {
		f.Archive.SecretKey = v
	}
	return f, nil
}

// DatabaseConfig converts the [database] section.
func (f *File) DatabaseConfig() (*database.Config, error) {
	s := f.Database

	port := 0
	if p := strings.TrimSpace(s.Port); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "database.port must be a number", err)
		}
		port = n
	}

	timeout, err := parseTimeout(s.ConnectTimeout)
	if err != nil {
		return nil, err
	}

	dbname := s.DBName
	switch strings.ToLower(strings.TrimSpace(s.DBType)) {
	case string(database.DriverSQLite), "sqlite3":
		dbname = f.resolve(dbname)
	}

	cfg := &database.Config{
		Driver:          database.Driver(strings.TrimSpace(s.DBType)),
		Host:            s.Host,
		Port:            port,
		User:            s.User,
		Password:        s.Password,
		Database:        dbname,
		Charset:         s.Charset,
		EmulatePrepares: flag(s.Emulate),
		ConnectTimeout:  timeout,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AuditConfig converts the [database_log] section.
func (f *File) AuditConfig() audit.Config {
	s := f.Log
	dir := s.Dir
	if dir == "" {
		dir = defaultLogDir
	}
	return audit.Config{
		Dir:        f.resolve(dir),
		NamePrefix: s.NamePrefix,
		NameSuffix: s.NameSuffix,
		Ext:        s.Ext,
		Enabled:    flag(s.Enable),
	}
}

// LoggerConfig converts the [logger] section. Output is left to the caller.
func (f *File) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if f.Logger.Level != "" {
		cfg.Level = f.Logger.Level
	}
	if f.Logger.Format != "" {
		cfg.Format = f.Logger.Format
	}
	return cfg
}

// ArchiveConfig converts the [archive] section. enabled is false when the
// section is absent or its enable flag is not "true".
func (f *File) ArchiveConfig() (cfg *filestore.Config, enabled bool) {
	s := f.Archive
	return &filestore.Config{
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		UseSSL:    flag(s.UseSSL),
		Region:    s.Region,
		Bucket:    s.Bucket,
		Prefix:    s.Prefix,
	}, flag(s.Enable)
}

// resolve makes a relative path relative to the config file.
func (f *File) resolve(p string) string {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) || strings.HasPrefix(p, "file:") {
		return p
	}
	return filepath.Join(f.dir, p)
}

// flag is true only for the literal "true".
func flag(v string) bool {
	return strings.TrimSpace(v) == "true"
}

// parseTimeout accepts a Go duration ("5s") or whole seconds ("5").
func parseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errs.Wrap(errs.ErrKindInvalidInput, "database.connect_timeout must be a duration", err)
	}
	return d, nil
}
