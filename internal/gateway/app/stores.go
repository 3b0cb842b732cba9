package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"bootstrapper/internal/artifact"
	"bootstrapper/internal/gateway/config"
)

// initArtifactStore picks S3/MinIO when configured, else Postgres when a DSN
// is set, else memory. The chosen origin is always fronted by the cache.
func initArtifactStore(ctx context.Context, cfg *config.Config) (artifact.Store, *sql.DB, error) {
	var (
		origin artifact.Store
		db     *sql.DB
	)
	switch {
	case cfg.Artifact.CanUseS3():
		s3Store, err := artifact.NewS3Store(artifact.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		log.Printf("artifact store: s3 bucket=%s endpoint=%s", cfg.Artifact.Bucket, cfg.Artifact.Endpoint)
		origin = s3Store
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		var err error
		db, err = artifact.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("artifact store: postgres")
		origin = artifact.NewPostgresStore(db)
	default:
		if cfg.Artifact.Enabled {
			log.Printf("artifact store: using in-memory fallback (s3 config incomplete)")
		} else {
			log.Printf("artifact store: in-memory")
		}
		origin = artifact.NewMemoryStore()
	}
	return artifact.NewCachedStore(origin, artifact.DefaultCacheConfig()), db, nil
}
