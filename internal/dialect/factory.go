package dialect

import (
	"fmt"

	"github.com/tabload/tabload/internal/config"
)

// New builds the dialect named by the destination config. Dialects are
// selected explicitly here; there is no registration side channel.
func New(cfg *config.DestinationConfig) (Dialect, error) {
	switch cfg.Type {
	case "postgres":
		return newPostgres(cfg), nil
	case "mssql":
		return newMSSQL(cfg), nil
	case "mysql":
		return newMySQL(cfg), nil
	case "sqlite":
		return newSQLite(cfg), nil
	default:
		return nil, fmt.Errorf("unknown destination type %q", cfg.Type)
	}
}
