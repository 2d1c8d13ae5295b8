package provfmt

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mlprov/internal/prov"
)

func TestSerializeGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, f := range Formats() {
		t.Run(string(f), func(t *testing.T) {
			data, err := Marshal(fixture(), f)
			require.NoError(t, err)
			g.Assert(t, "fixture_"+string(f), data)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	docs := map[string]*prov.Document{
		"empty":   prov.NewDocument(),
		"fixture": fixture(),
		"rich":    richDocument(),
	}

	for name, doc := range docs {
		for _, f := range readOrder {
			t.Run(name+"/"+string(f), func(t *testing.T) {
				data, err := Marshal(doc, f)
				require.NoError(t, err)

				got, err := Deserialize(data, f)
				require.NoError(t, err, "%s", data)
				assert.True(t, doc.Equal(got), "%s", data)

				again, err := Marshal(got, f)
				require.NoError(t, err)
				assert.Equal(t, string(data), string(again))
			})
		}
	}
}

func TestDeserializeDetectsFormat(t *testing.T) {
	for _, f := range readOrder {
		t.Run(string(f), func(t *testing.T) {
			data, err := Marshal(richDocument(), f)
			require.NoError(t, err)

			got, err := Deserialize(data, "")
			require.NoError(t, err)
			assert.True(t, richDocument().Equal(got))
		})
	}
}

func TestDeserializeFailureCarriesContent(t *testing.T) {
	content := "not a provenance document " + strings.Repeat("x", 300)

	_, err := Deserialize([]byte(content), "")

	var de *DeserializeError
	require.ErrorAs(t, err, &de)
	require.Len(t, de.Errs, 3)
	assert.Equal(t, []Format{FormatJSON, FormatXML, FormatPROVN},
		[]Format{de.Errs[0].Format, de.Errs[1].Format, de.Errs[2].Format})
	assert.True(t, strings.HasPrefix(de.Excerpt(), "not a provenance document"))
	assert.True(t, strings.HasSuffix(de.Excerpt(), "..."))
	assert.Contains(t, err.Error(), "provn:")
}

func TestDeserializeRejectsExportOnlyFormats(t *testing.T) {
	_, err := Deserialize([]byte("digraph G {}"), FormatDOT)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestSerializationIgnoresInsertionOrder(t *testing.T) {
	a := richDocument()
	b := prov.NewDocument()
	elements, relations := a.Elements(), a.Relations()
	for i := len(elements) - 1; i >= 0; i-- {
		b.AddElement(elements[i])
	}
	for i := len(relations) - 1; i >= 0; i-- {
		b.AddRelation(relations[i])
	}

	for _, f := range Formats() {
		x, err := Marshal(a, f)
		require.NoError(t, err)
		y, err := Marshal(b, f)
		require.NoError(t, err)
		assert.Equal(t, string(x), string(y), "format %s", f)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PROVN ")
	require.NoError(t, err)
	assert.Equal(t, FormatPROVN, f)

	_, err = ParseFormat("yaml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Marshal(fixture(), Format("yaml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")

	require.NoError(t, WriteFile(path, fixture(), FormatJSON, false))

	err := WriteFile(path, prov.NewDocument(), FormatJSON, false)
	assert.True(t, errors.Is(err, ErrFileExists))

	require.NoError(t, WriteFile(path, prov.NewDocument(), FormatJSON, true))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestRead(t *testing.T) {
	data, err := Marshal(fixture(), FormatXML)
	require.NoError(t, err)

	got, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, fixture().Equal(got))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
