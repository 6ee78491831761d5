// Package pg bootstraps PostgreSQL access with pgx/v5.
//
// Connect opens a *pgxpool.Pool with retry, OpenDB bridges the pool to
// database/sql for code written against *sql.DB, Migrate runs embedded goose
// migrations and Healthcheck builds a readiness check.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	db := pg.OpenDB(pool)
//	if err := pg.Migrate(ctx, db, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//	    return err
//	}
package pg
