package models

// Racer is one entry of the lazily-loaded racer index. Key is the
// stable lookup handle (the lowercased full name); Club is the club
// code as printed on result sheets.
type Racer struct {
	Name     string   `json:"name"`
	Key      string   `json:"key"`
	Club     string   `json:"club"`
	EventIDs []string `json:"event_ids"`
}
