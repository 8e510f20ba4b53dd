package entity

// Role is a guild role reduced to the pair the admin UI needs to
// populate its selection controls.
type Role struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}
