package model

const (
	ProviderLocal   = "LOCAL"
	DefaultPosition = "Vocalist"
)

// Positions are the performance roles offered on signup and reservation.
var Positions = []string{"Vocalist", "Guitarist", "Keyboardist", "Bassist", "Percussionist"}

type LoginRequest struct {
	UserId   string `json:"userId"`
	Password string `json:"password"`
}

type SignupRequest struct {
	SocialId        string `json:"socialId"`
	SocialProvider  string `json:"socialProvider"`
	Password        string `json:"password"`
	Nickname        string `json:"nickname"`
	PhoneNumber     string `json:"phoneNumber"`
	ActivityRegion  string `json:"activityRegion"`
	PreferredGenres string `json:"preferredGenres"`
	Position        string `json:"position"`
	Introduction    string `json:"introduction"`
}
