package entity

// User is an admin API caller, resolved from a bearer token declared
// in the service configuration.
type User struct {
	Username string `json:"username" yaml:"username" validate:"required"`
	Token    string `json:"token" yaml:"token" validate:"required,min=1"`
}
