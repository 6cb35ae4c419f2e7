package models

// Quote is one entry from the quote catalog the frontend curates. Tags are
// used to match quotes against the user's stated goals.
type Quote struct {
	ID     string   `json:"id"`
	Text   string   `json:"text"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
}
