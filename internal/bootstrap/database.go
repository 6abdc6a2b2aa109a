package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/posture-report/internal/config"
	"github.com/jonesrussell/posture-report/internal/database"
)

// SetupDatabase creates the run-registry database connection and ensures
// its schema.
func SetupDatabase(cfg *config.Config) (*database.Connection, error) {
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxConnections:  cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	}

	db, err := database.NewConnection(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
