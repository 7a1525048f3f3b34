package domain

import "time"

// Action is a member of the closed activity-log enumeration. The log is
// append-only: entries are never mutated or deleted by the application.
type Action string

const (
	ActionLogin  Action = "LOGIN"
	ActionLogout Action = "LOGOUT"

	ActionProjectUpload   Action = "PROJECT_UPLOAD"
	ActionProjectDownload Action = "PROJECT_DOWNLOAD"
	ActionProjectEdit     Action = "PROJECT_EDIT"
	ActionProjectDelete   Action = "PROJECT_DELETE"

	ActionUserCreate     Action = "USER_CREATE"
	ActionUserDelete     Action = "USER_DELETE"
	ActionPasswordChange Action = "PASSWORD_CHANGE"

	ActionCategoryCreate Action = "CATEGORY_CREATE"
	ActionCategoryDelete Action = "CATEGORY_DELETE"

	ActionPasswordResetRequest Action = "PASSWORD_RESET_REQUEST"
	ActionPasswordResetSuccess Action = "PASSWORD_RESET_SUCCESS"

	ActionMFASetup        Action = "MFA_SETUP"
	ActionMFAEnabled      Action = "MFA_ENABLED"
	ActionMFADisabled     Action = "MFA_DISABLED"
	ActionMFAVerified     Action = "MFA_VERIFIED"
	ActionMFALoginSuccess Action = "MFA_LOGIN_SUCCESS"
	ActionMFALoginFailed  Action = "MFA_LOGIN_FAILED"
)

// ActivityEntry records who did what. Username is denormalized so the
// entry survives deletion of the user.
type ActivityEntry struct {
	ID        string
	Username  string
	Action    Action
	Details   string
	CreatedAt time.Time
}
