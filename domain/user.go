package domain

// User is a document read from the configured user collection. Which
// attribute identifies a user at login and which one holds the
// credential hash is decided by configuration, so the record carries
// its attributes as a dynamic map instead of a fixed struct.
type User struct {
	ID     string
	Fields map[string]any
}

// Field returns the named attribute as a string, or "" when the
// attribute is absent or not a string.
func (u *User) Field(name string) string {
	if u == nil || u.Fields == nil {
		return ""
	}
	s, _ := u.Fields[name].(string)
	return s
}
