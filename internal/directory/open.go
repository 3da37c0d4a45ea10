package directory

import (
	"context"
	"fmt"

	"github.com/treykane/auth-helper/internal/appconfig"
)

// Open returns the Source selected by cfg.Backend.
func Open(cfg appconfig.DirectoryConfig) (Source, error) {
	switch cfg.Backend {
	case appconfig.BackendRedis:
		return NewRedisSource(cfg.Redis), nil
	case appconfig.BackendSQLite:
		return NewSQLiteSource(cfg.SQLite.Path)
	case appconfig.BackendFile:
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("file directory path is empty")
		}
		return NewFileSource(cfg.File.Path), nil
	default:
		return nil, fmt.Errorf("unknown directory backend %q", cfg.Backend)
	}
}

// LoadConfig opens the configured source, loads it and closes it again.
func LoadConfig(ctx context.Context, cfg appconfig.DirectoryConfig) (*Directory, error) {
	src, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return Load(ctx, src)
}
