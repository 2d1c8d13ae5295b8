package prov

import "strings"

// Kind identifies the PROV type of a record.
type Kind uint8

const (
	KindEntity Kind = iota + 1
	KindActivity
	KindAgent
	KindGeneration
	KindUsage
	KindCommunication
	KindStart
	KindEnd
	KindInvalidation
	KindDerivation
	KindAttribution
	KindAssociation
	KindDelegation
	KindInfluence
	KindSpecialization
	KindAlternate
	KindMembership
)

type kindInfo struct {
	name    string    // PROV type local part, e.g. "Generation"
	keyword string    // PROV-N keyword, PROV-JSON section and PROV-XML element
	slots   [2]string // formal source and target slots
	extra   []string  // further positional slots in PROV-N
}

var kinds = map[Kind]kindInfo{
	KindEntity:         {name: "Entity", keyword: "entity"},
	KindActivity:       {name: "Activity", keyword: "activity", extra: []string{"startTime", "endTime"}},
	KindAgent:          {name: "Agent", keyword: "agent"},
	KindGeneration:     {name: "Generation", keyword: "wasGeneratedBy", slots: [2]string{"entity", "activity"}, extra: []string{"time"}},
	KindUsage:          {name: "Usage", keyword: "used", slots: [2]string{"activity", "entity"}, extra: []string{"time"}},
	KindCommunication:  {name: "Communication", keyword: "wasInformedBy", slots: [2]string{"informed", "informant"}},
	KindStart:          {name: "Start", keyword: "wasStartedBy", slots: [2]string{"activity", "trigger"}, extra: []string{"starter", "time"}},
	KindEnd:            {name: "End", keyword: "wasEndedBy", slots: [2]string{"activity", "trigger"}, extra: []string{"ender", "time"}},
	KindInvalidation:   {name: "Invalidation", keyword: "wasInvalidatedBy", slots: [2]string{"entity", "activity"}, extra: []string{"time"}},
	KindDerivation:     {name: "Derivation", keyword: "wasDerivedFrom", slots: [2]string{"generatedEntity", "usedEntity"}, extra: []string{"activity", "generation", "usage"}},
	KindAttribution:    {name: "Attribution", keyword: "wasAttributedTo", slots: [2]string{"entity", "agent"}},
	KindAssociation:    {name: "Association", keyword: "wasAssociatedWith", slots: [2]string{"activity", "agent"}, extra: []string{"plan"}},
	KindDelegation:     {name: "Delegation", keyword: "actedOnBehalfOf", slots: [2]string{"delegate", "responsible"}, extra: []string{"activity"}},
	KindInfluence:      {name: "Influence", keyword: "wasInfluencedBy", slots: [2]string{"influencee", "influencer"}},
	KindSpecialization: {name: "Specialization", keyword: "specializationOf", slots: [2]string{"specificEntity", "generalEntity"}},
	KindAlternate:      {name: "Alternate", keyword: "alternateOf", slots: [2]string{"alternate1", "alternate2"}},
	KindMembership:     {name: "Membership", keyword: "hadMember", slots: [2]string{"collection", "entity"}},
}

var kindsByKeyword = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for k, info := range kinds {
		m[info.keyword] = k
	}
	return m
}()

// KindByKeyword resolves a PROV-N keyword such as "wasGeneratedBy".
func KindByKeyword(keyword string) (Kind, bool) {
	k, ok := kindsByKeyword[keyword]
	return k, ok
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := KindEntity; k <= KindMembership; k++ {
		out = append(out, k)
	}
	return out
}

// String returns the PROV type local part, e.g. "Attribution".
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "Unknown"
}

// Keyword returns the PROV-N keyword, e.g. "wasAttributedTo".
func (k Kind) Keyword() string {
	return kinds[k].keyword
}

// IsRelation reports whether k is a relation kind.
func (k Kind) IsRelation() bool {
	return k >= KindGeneration && k <= KindMembership
}

// IsElement reports whether k is an element kind.
func (k Kind) IsElement() bool {
	return k >= KindEntity && k <= KindAgent
}

// Slots returns the formal source and target attribute names of a relation kind.
func (k Kind) Slots() (source, target QualifiedName) {
	info := kinds[k]
	return NamespacePROV.Qualify(info.slots[0]), NamespacePROV.Qualify(info.slots[1])
}

// ExtraSlots returns the positional slots PROV-N writes after the formal ones.
func (k Kind) ExtraSlots() []QualifiedName {
	info := kinds[k]
	out := make([]QualifiedName, len(info.extra))
	for i, s := range info.extra {
		out[i] = NamespacePROV.Qualify(s)
	}
	return out
}

// Element is an entity, activity or agent.
type Element struct {
	Kind       Kind
	ID         QualifiedName
	Attributes Attributes
}

// Relation is a typed edge between two records. ID is zero for anonymous relations.
type Relation struct {
	Kind       Kind
	ID         QualifiedName
	Source     QualifiedName
	Target     QualifiedName
	Attributes Attributes
}

// RelationID derives the identifier of a relation from its two endpoints.
func RelationID(source, target QualifiedName) QualifiedName {
	return NamespaceExample.Qualify("relation:" + source.String() + ":" + target.String())
}

func (r Relation) key() string {
	var sb strings.Builder
	sb.WriteString(r.Kind.Keyword())
	for _, q := range []QualifiedName{r.ID, r.Source, r.Target} {
		sb.WriteByte('|')
		sb.WriteString(q.URI())
	}
	sb.WriteByte('|')
	sb.WriteString(r.Attributes.key())
	return sb.String()
}
