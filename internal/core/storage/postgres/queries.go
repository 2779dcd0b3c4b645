package postgres

// SQL queries for the click snapshot table.

const (
	// queryReadSnapshot fetches the snapshot body by name.
	queryReadSnapshot = `
		SELECT body
		FROM click_snapshots
		WHERE name = $1
	`

	// queryWriteSnapshot overwrites the snapshot body, creating the row on first write.
	queryWriteSnapshot = `
		INSERT INTO click_snapshots (name, body, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at
	`

	// querySnapshotTableExists checks that migrations have been applied.
	querySnapshotTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'click_snapshots'
		)
	`
)
