package models

import "strings"

// User is one registered person. The whole record lives inside the
// single persisted document; there is no secondary index, every lookup
// is a linear scan over Document.Users.
type User struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"` // unique case-insensitively
	PasswordHash string           `json:"password_hash"`
	RegDate      string           `json:"regDate"`
	Tokens       []Token          `json:"tokens"`
	TelegramID   int64            `json:"telegram_id,omitempty"`
	BioHistory   []map[string]any `json:"bio_history"`
	DietHistory  []DietEntry      `json:"diet_history"`
	Detections   []map[string]any `json:"detection_sessions,omitempty"`
}

// Token is one issued bearer session. Only the SHA256 hash of the
// bearer string is persisted, never the plaintext.
type Token struct {
	Hash      string `json:"hash"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// PublicUser is the view returned by the API; it never carries
// password or token material.
type PublicUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	RegDate string `json:"regDate"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, RegDate: u.RegDate}
}

// DietEntry is one computed ration snapshot appended to a user's
// history by the site's Diet Builder or by the bot.
type DietEntry struct {
	Date             string   `json:"date"`
	Height           float64  `json:"height"`
	Weight           float64  `json:"weight"`
	Age              int      `json:"age"`
	Activity         string   `json:"activity"`
	Gravity          string   `json:"gravity"`
	Calories         int      `json:"calories"`
	Protein          int      `json:"protein"`
	Fat              int      `json:"fat"`
	Carbs            int      `json:"carbs"`
	RecommendedFoods []string `json:"recommendedFoods"`
}

// Document is the entire persisted state.
type Document struct {
	Users []User `json:"users"`
}

// UserByEmail finds a user by email, case-insensitively.
// Returns a pointer into Users so callers inside a store mutation can
// edit the record in place.
func (d *Document) UserByEmail(email string) *User {
	for i := range d.Users {
		if strings.EqualFold(d.Users[i].Email, email) {
			return &d.Users[i]
		}
	}
	return nil
}

// UserByTokenHash finds the user owning a token hash, expired or not.
func (d *Document) UserByTokenHash(hash string) *User {
	for i := range d.Users {
		for _, t := range d.Users[i].Tokens {
			if t.Hash == hash {
				return &d.Users[i]
			}
		}
	}
	return nil
}

// UserByTelegramID finds the user linked to a chat id.
func (d *Document) UserByTelegramID(chatID int64) *User {
	for i := range d.Users {
		if d.Users[i].TelegramID == chatID {
			return &d.Users[i]
		}
	}
	return nil
}

// UserByID finds a user by its immutable id.
func (d *Document) UserByID(id string) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}
