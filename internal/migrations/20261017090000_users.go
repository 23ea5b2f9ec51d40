package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/curaious/dashboard/internal/config"
)

func init() {
	m.addMigration(&migration{
		version: "20261017090000",
		up:      mig_20261017090000_users_up,
		down:    mig_20261017090000_users_down,
	})
}

func mig_20261017090000_users_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            email VARCHAR(255) NOT NULL,
            username VARCHAR(255) NOT NULL,
            name VARCHAR(255) NOT NULL,
            password_hash TEXT NOT NULL,
            role VARCHAR(32) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'manager', 'superadmin')),
            session_token VARCHAR(128),
            session_created_at TIMESTAMP WITH TIME ZONE,
            session_expires_at TIMESTAMP WITH TIME ZONE,
            last_activity TIMESTAMP WITH TIME ZONE,
            last_login TIMESTAMP WITH TIME ZONE,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_by VARCHAR(64) NOT NULL DEFAULT 'system',
            created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
            CONSTRAINT users_email_lower CHECK (email = LOWER(email)),
            CONSTRAINT users_username_lower CHECK (username = LOWER(username)),
            UNIQUE(email),
            UNIQUE(username),
            UNIQUE(session_token)
        );
    `)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_users_session_expires_at ON users(session_expires_at);
    `)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(config.ReadConfig().SEED_ADMIN_PASSWORD), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash superadmin password: %w", err)
	}

	_, err = tx.Exec(`
        INSERT INTO users (email, username, name, password_hash, role, is_active, created_by)
        VALUES ('admin@admin.com', 'admin', 'Super Admin', $1, 'superadmin', TRUE, 'system')
        ON CONFLICT DO NOTHING;
    `, string(hash))
	return err
}

func mig_20261017090000_users_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS users;`)
	return err
}
