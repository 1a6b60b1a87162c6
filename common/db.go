package common

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

// DBConfig carries the MySQL connection parameters. Connect/read/write
// timeouts are encoded in the DSN so every connection the pool hands out
// inherits them.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingMaxWait     time.Duration
}

func (c DBConfig) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&timeout=30s&readTimeout=30s&writeTimeout=30s",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// DBConnect opens the MySQL connection pool and waits until the database
// answers a ping or the configured deadline passes.
func DBConnect(cfg DBConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.dsn())
	if err != nil {
		log.Errorf("Failed to open the database: %v", err)
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingMaxWait := cfg.PingMaxWait
	if pingMaxWait <= 0 {
		pingMaxWait = time.Minute
	}
	deadline := time.Now().Add(pingMaxWait)
	waitInterval := time.Second
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr := db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			db.Close()
			return nil, fmt.Errorf("database ping timeout after %v: %w", pingMaxWait, pingErr)
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
		if waitInterval > 30*time.Second {
			waitInterval = 30 * time.Second
		}
	}

	log.Infof("Established db connection pool: open=%d idle=%d", cfg.MaxOpenConns, cfg.MaxIdleConns)
	return db, nil
}
