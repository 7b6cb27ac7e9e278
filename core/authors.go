package core

// Authors are the diary owners accepted by the API. The set is fixed at
// startup (overridable via DIARY_USERS) and is deliberately tiny: this
// is a two-person app, not a user system.
var Authors = []string{"Ilaria", "Lorenzo"}

// IsAuthor reports whether name is one of the configured diary owners.
func IsAuthor(name string) bool {
	for _, a := range Authors {
		if a == name {
			return true
		}
	}
	return false
}
