package activity

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

type Action string

const (
	ActionLogin           Action = "LOGIN"
	ActionSessionTakeover Action = "SESSION_TAKEOVER"
	ActionLogout          Action = "LOGOUT"
	ActionUserCreated     Action = "USER_CREATED"
	ActionUserDeleted     Action = "USER_DELETED"
	ActionPasswordChanged Action = "PASSWORD_CHANGED"
)

// Details is stored as JSONB.
type Details map[string]any

func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return sonic.Marshal(d)
}

func (d *Details) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = Details{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported details type %T", src)
	}
	return sonic.Unmarshal(raw, d)
}

type Entry struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    *uuid.UUID `db:"user_id" json:"userId,omitempty"`
	Action    Action     `db:"action" json:"action"`
	Details   Details    `db:"details" json:"details"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}
