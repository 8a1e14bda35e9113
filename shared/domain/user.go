package domain

// User is the profile the API returns at login and embeds as author reference
// on blogs and comments.
type User struct {
	Id           string `json:"_id,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"` // relative to the image base URL
}

// DisplayName falls back to a generic label for anonymous or partial records.
func (u *User) DisplayName(fallback string) string {
	if u == nil || u.Name == "" {
		return fallback
	}
	return u.Name
}
