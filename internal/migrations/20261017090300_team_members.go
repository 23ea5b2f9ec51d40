package migrations

import "github.com/jmoiron/sqlx"

func init() {
	m.addMigration(&migration{
		version: "20261017090300",
		up:      mig_20261017090300_team_members_up,
		down:    mig_20261017090300_team_members_down,
	})
}

func mig_20261017090300_team_members_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS team_members (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            name VARCHAR(255) NOT NULL,
            email VARCHAR(255) NOT NULL,
            role VARCHAR(255) NOT NULL DEFAULT '',
            max_capacity INTEGER NOT NULL DEFAULT 8,
            created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
            UNIQUE(name),
            UNIQUE(email)
        );
    `)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        CREATE TABLE IF NOT EXISTS team_settings (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            default_max_capacity INTEGER NOT NULL CHECK (default_max_capacity > 0),
            updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
        );
    `)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        INSERT INTO team_settings (id, default_max_capacity) VALUES (1, 8)
        ON CONFLICT (id) DO NOTHING;
    `)
	return err
}

func mig_20261017090300_team_members_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS team_settings;`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DROP TABLE IF EXISTS team_members;`)
	return err
}
