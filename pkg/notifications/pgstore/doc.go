// Package pgstore implements the notifications storage interfaces on
// PostgreSQL through database/sql.
//
// The schema ships as embedded goose migrations:
//
//	db := pg.OpenDB(pool)
//	if err := pg.Migrate(ctx, db, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//	    return err
//	}
//	store := pgstore.New(db)
//
// Read and sent flags are guarded by CHECK constraints, and the partial
// unique index notification_templates_default_idx allows one default template
// per type and channel.
package pgstore
