package ops

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/prov"
)

// ErrAgentWithoutName is returned when an agent lacks the name attribute
// its identity is derived from.
var ErrAgentWithoutName = errors.New("agent representing a user has no name")

// Pseudonymize replaces every agent by one identified by the SHA-256 of its
// name and email. Only the hashed name and email plus prov:role and
// prov:type survive. References to the old agent are rewritten.
func Pseudonymize(doc *prov.Document) (*prov.Document, error) {
	ids := make(map[string]prov.QualifiedName)
	elements := doc.Elements()
	for i, e := range elements {
		if e.Kind != prov.KindAgent {
			continue
		}
		name, ok := e.Attributes.First("name")
		if !ok {
			return nil, fmt.Errorf("pseudonymize %s: %w", e.ID, ErrAgentWithoutName)
		}
		nameHash := digest(name.Lexical())
		var mailHash string
		if email, ok := e.Attributes.First("email"); ok {
			mailHash = digest(email.Lexical())
		}

		var kept prov.Attributes
		for _, a := range e.Attributes {
			switch {
			case a.Key.LocalPart == "name":
				kept = append(kept, prov.Attribute{Key: a.Key, Value: prov.String(nameHash)})
			case a.Key.LocalPart == "email":
				kept = append(kept, prov.Attribute{Key: a.Key, Value: prov.String(mailHash)})
			case a.Key.Equal(prov.AttrRole), a.Key.Equal(prov.AttrType):
				kept = append(kept, a)
			}
		}

		id := domain.Identifier(e.ID.Namespace, domain.TypeUser, "name", nameHash, "email", mailHash)
		ids[e.ID.URI()] = id
		elements[i] = prov.Element{Kind: prov.KindAgent, ID: id, Attributes: kept}
	}
	return reroute(doc, elements, ids), nil
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
