package audit

import (
	"github.com/lumenboard/lumenboard/internal/database"
)

// Well-known audit actions
const (
	ActionLogin             = "login"
	ActionLogout            = "logout"
	ActionDeviceCodeIssued  = "device_code_issued"
	ActionDevicePaired      = "device_paired"
	ActionDeviceAuthorized  = "device_authorized"
	ActionSessionDeleted    = "session_deleted"
	ActionPreferencesSet    = "preferences_set"
	ActionPreferencesUpdate = "preferences_update"
	ActionPreferencesDelete = "preferences_delete"
	ActionRoleChanged       = "role_changed"
	ActionUserToggled       = "user_toggled"
	ActionPermissionGranted = "permission_granted"
	ActionPermissionRevoked = "permission_revoked"
	ActionSessionsRevoked   = "sessions_revoked"
	ActionGroupChanged      = "group_changed"
)

// Entry is an append-only audit record. UserID is empty for events that
// happen before an account is resolved.
type Entry struct {
	database.BaseModel

	UserID  string `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	Action  string `gorm:"column:action;not null;index" json:"action"`
	Details string `gorm:"column:details;type:text" json:"details"`
	IP      string `gorm:"column:ip;type:text" json:"ip"`
}

func (Entry) TableName() string {
	return "audit_log"
}
