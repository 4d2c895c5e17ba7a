package models

// UserInfo describes the authenticated accountant office account.
type UserInfo struct {
	Email       string `json:"email"`
	OfficeName  string `json:"officeName"`
	Plan        string `json:"plan"`
	ClientCount int    `json:"clientCount"`
}
