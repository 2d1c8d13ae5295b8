package provfmt

import (
	"time"

	"github.com/roach88/mlprov/internal/prov"
)

var testNS = prov.Namespace{URI: "https://example.test/"}

// fixture holds one entity, one agent and one identified attribution.
func fixture() *prov.Document {
	file := testNS.Qualify("File?path=README.md")
	user := testNS.Qualify("User?name=Alice")

	doc := prov.NewDocument()
	doc.AddElement(prov.Element{Kind: prov.KindEntity, ID: file, Attributes: prov.Attributes{
		{Key: testNS.Qualify("path"), Value: prov.String("README.md")},
		{Key: testNS.Qualify("size"), Value: prov.Int(42)},
		{Key: prov.AttrType, Value: prov.String("File")},
	}})
	doc.AddElement(prov.Element{Kind: prov.KindAgent, ID: user, Attributes: prov.Attributes{
		{Key: testNS.Qualify("name"), Value: prov.String("Alice")},
		{Key: prov.AttrRole, Value: prov.String("Author")},
	}})
	doc.AddRelation(prov.Relation{Kind: prov.KindAttribution, ID: prov.RelationID(file, user), Source: file, Target: user})
	return doc
}

// richDocument exercises every literal datatype, positional times,
// anonymous relations and identifiers shared by two relations.
func richDocument() *prov.Document {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	run := testNS.Qualify("Run?run_id=r1&name=train")
	metric := testNS.Qualify("Metric?run_id=r1&name=loss&step=0")
	creation := testNS.Qualify("Creation?uid=r1&resource_type=Run")
	user := testNS.Qualify("User?name=Bob+Smith&email=bob%40example.org")

	doc := prov.NewDocument()
	doc.AddElement(prov.Element{Kind: prov.KindEntity, ID: run, Attributes: prov.Attributes{
		{Key: prov.AttrType, Value: prov.QName(prov.TypeCollection)},
		{Key: prov.AttrType, Value: prov.String("Run")},
		{Key: testNS.Qualify("note"), Value: prov.String("first line\nsecond \"quoted\" line\tand a \\ backslash")},
		{Key: testNS.Qualify("started"), Value: prov.Time(t0)},
	}})
	doc.AddElement(prov.Element{Kind: prov.KindEntity, ID: metric, Attributes: prov.Attributes{
		{Key: testNS.Qualify("value"), Value: prov.Float(0.25)},
		{Key: testNS.Qualify("step"), Value: prov.Int(0)},
		{Key: testNS.Qualify("is_dir"), Value: prov.Bool(false)},
	}})
	doc.AddElement(prov.Element{Kind: prov.KindActivity, ID: creation, Attributes: prov.Attributes{
		{Key: prov.AttrStartTime, Value: prov.Time(t0)},
		{Key: prov.AttrEndTime, Value: prov.Time(t0.Add(time.Minute))},
		{Key: prov.AttrType, Value: prov.String("Creation")},
	}})
	doc.AddElement(prov.Element{Kind: prov.KindAgent, ID: user, Attributes: prov.Attributes{
		{Key: testNS.Qualify("email"), Value: prov.String("bob@example.org")},
		{Key: prov.AttrRole, Value: prov.String("RunAuthor")},
		{Key: prov.AttrRole, Value: prov.String("ExperimentAuthor")},
	}})

	doc.AddRelation(prov.Relation{Kind: prov.KindGeneration, Source: run, Target: creation, Attributes: prov.Attributes{
		{Key: prov.AttrRole, Value: prov.String("AddedRun")},
		{Key: prov.AttrStartTime, Value: prov.Time(t0)},
	}})
	doc.AddRelation(prov.Relation{Kind: prov.KindMembership, ID: prov.RelationID(run, metric), Source: run, Target: metric})
	doc.AddRelation(prov.Relation{Kind: prov.KindAssociation, ID: prov.RelationID(creation, user), Source: creation, Target: user,
		Attributes: prov.Attributes{{Key: prov.AttrRole, Value: prov.String("RunAuthor")}}})
	doc.AddRelation(prov.Relation{Kind: prov.KindAssociation, ID: prov.RelationID(creation, user), Source: creation, Target: user,
		Attributes: prov.Attributes{{Key: prov.AttrRole, Value: prov.String("ExperimentAuthor")}}})
	doc.AddRelation(prov.Relation{Kind: prov.KindDerivation, Source: metric, Target: run, Attributes: prov.Attributes{
		{Key: prov.AttrType, Value: prov.QName(prov.TypeRevision)},
	}})
	return doc
}
