package database

import (
	"errors"
	"fmt"

	"github.com/geoinfo/firedb/pkg/config"
)

var errNotConnected = errors.New("database operator is not connected")

func connectionError(cfg *config.DatabaseConfig, cause error) error {
	return fmt.Errorf("failed to connect to %s:%d/%s: %w",
		cfg.Host, cfg.Port, cfg.Database, cause)
}
