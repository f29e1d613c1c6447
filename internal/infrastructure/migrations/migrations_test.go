package migrations

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err, "ncruces driver should open :memory: database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableNames(t *testing.T, db *sql.DB) map[string]bool {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	require.NoError(t, err)
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names[name] = true
	}
	require.NoError(t, rows.Err())
	return names
}

func TestRun_FreshDB(t *testing.T) {
	db := openMemoryDB(t)
	require.NoError(t, Run(db))

	names := tableNames(t, db)
	for _, table := range []string{
		"projects", "versions", "issue_types", "issue_link_types", "issues",
		"issue_fix_versions", "issue_affected_versions", "custom_fields",
		"field_configs", "field_config_projects", "issue_field_values",
		"issue_field_versions", "attachments",
	} {
		require.True(t, names[table], "table %s should exist", table)
	}
}

func TestRun_Idempotent(t *testing.T) {
	db := openMemoryDB(t)
	require.NoError(t, Run(db), "first run should succeed")
	require.NoError(t, Run(db), "second run should not error")
	require.True(t, tableNames(t, db)["versions"])
}

func TestMigrations_Down(t *testing.T) {
	db := openMemoryDB(t)

	driver, err := WithInstance(db, &Config{})
	require.NoError(t, err)
	source, err := iofs.New(FS(), ".")
	require.NoError(t, err)
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	require.NoError(t, err)

	require.NoError(t, m.Up())
	require.True(t, tableNames(t, db)["versions"])

	require.NoError(t, m.Down())
	require.False(t, tableNames(t, db)["versions"], "versions table should be dropped")
	require.False(t, tableNames(t, db)["issues"], "issues table should be dropped")
}

func TestUp_ErrNoChangeOnSecondMigrator(t *testing.T) {
	db := openMemoryDB(t)

	for i := 0; i < 2; i++ {
		driver, err := WithInstance(db, &Config{})
		require.NoError(t, err)
		source, err := iofs.New(FS(), ".")
		require.NoError(t, err)
		m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
		require.NoError(t, err)

		err = m.Up()
		if i == 0 {
			require.NoError(t, err, "first run should apply")
		} else if err != nil {
			require.True(t, errors.Is(err, migrate.ErrNoChange), "second run should be a no-op, got: %v", err)
		}
	}
}

func TestSchema_VersionNameUniquePerProject(t *testing.T) {
	db := openMemoryDB(t)
	require.NoError(t, Run(db))

	res, err := db.Exec(`INSERT INTO projects (key) VALUES ('PRJ')`)
	require.NoError(t, err)
	projectID, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO versions (guid, project_id, name) VALUES ('g1', ?, '1.0')`, projectID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO versions (guid, project_id, name) VALUES ('g2', ?, '1.0')`, projectID)
	require.Error(t, err, "duplicate version name in a project should violate the unique constraint")
}

func TestSchema_ProjectKeyCaseInsensitive(t *testing.T) {
	db := openMemoryDB(t)
	require.NoError(t, Run(db))

	_, err := db.Exec(`INSERT INTO projects (key) VALUES ('PRJ')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO projects (key) VALUES ('prj')`)
	require.Error(t, err, "project keys should collide case-insensitively")
}
