package domain

// Profile is the per-role profile blob shown on the profile page.
type Profile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	DOB        string `json:"dob"`
	Role       string `json:"role"`
	LinkedIn   string `json:"linkedin"`
	GitHub     string `json:"github"`
	ProfilePic string `json:"profilePic"`
}

// Notes holds the free-text scratchpad kept next to a user's board.
type Notes struct {
	Text string `json:"notes"`
}
