package domain

import (
	"regexp"
	"strings"

	"github.com/roach88/mlprov/internal/prov"
)

// User is a person acting on a repository or tracking server.
type User struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// NewUser returns a user with a lower-cased email.
func NewUser(name, email, username string, role Role) User {
	return User{Name: name, Email: strings.ToLower(email), Username: username, Role: role}
}

var userString = regexp.MustCompile(`^\s*([^<]*?)\s*<([^>]+)>\s*$`)

// ParseUser parses "Name <email>". Any other string is taken as a username.
func ParseUser(s string, role Role) User {
	if m := userString.FindStringSubmatch(s); m != nil {
		return NewUser(m[1], m[2], "", role)
	}
	return NewUser("", "", s, role)
}

func (u User) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeUser, "name", u.Name, "email", strings.ToLower(u.Email))
}

func (u User) Element(ns prov.Namespace) prov.Element {
	a := newAttrs(ns).
		str("name", u.Name).
		str("email", strings.ToLower(u.Email)).
		opt("username", u.Username)
	if u.Role != "" {
		a.provAttr(prov.AttrRole, prov.String(string(u.Role)))
	}
	return a.typ(TypeUser).element(prov.KindAgent, u.Identifier(ns))
}
