package model

// AppConfig is the single campaign-wide configuration record.
// It is absent until the first GM bootstrap.
type AppConfig struct {
	GMUserID *UserID `json:"gmUserId"`
}

// IsGM reports whether uid is the designated GM
func (a *AppConfig) IsGM(uid UserID) bool {
	return a != nil && a.GMUserID != nil && *a.GMUserID == uid
}
