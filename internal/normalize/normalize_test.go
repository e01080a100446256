// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/patent-scout/pkg/types"
)

func TestRecord_EmptyMap(t *testing.T) {
	rec := Record(types.RawFieldMap{})

	assert.Equal(t, "", rec.ID)
	assert.Equal(t, "", rec.Title)
	assert.Equal(t, "", rec.Date)
	assert.Equal(t, []string{types.UnknownInventor}, rec.Inventors)
	assert.Equal(t, "", rec.Applicant)
	assert.Equal(t, types.NoAbstract, rec.Abstract)
	assert.Equal(t, "", rec.SourceURL)
	assert.Equal(t, "", rec.PDFURL)
	assert.Equal(t, types.StatusAvailable, rec.Status)

	// Every string field is present in the JSON encoding.
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"id", "title", "date", "inventors", "applicant", "abstract", "sourceUrl", "pdfUrl", "status"} {
		assert.Contains(t, decoded, key)
	}
	assert.NotContains(t, decoded, "source")
	assert.NotContains(t, decoded, "rank")
}

func TestRecord_NoIDFieldMeansNoID(t *testing.T) {
	rec := Record(types.RawFieldMap{
		types.FieldTitle: types.Str("US1234567A Widget"),
		types.FieldDate:  types.Str("03/04/2021"),
	})
	assert.Equal(t, "", rec.ID)
	assert.Equal(t, "2021-03-04", rec.Date)
	assert.Equal(t, "US1234567A Widget", rec.Title)
}

func TestRecord_IDPrefixStrippedAndUppercased(t *testing.T) {
	rec := Record(types.RawFieldMap{
		types.FieldID:    types.Str("us1234567a"),
		types.FieldTitle: types.Str("US1234567A — Widget"),
	})
	assert.Equal(t, "US1234567A", rec.ID)
	assert.Equal(t, "Widget", rec.Title)
	assert.Equal(t, "https://patents.google.com/patent/US1234567A/en", rec.SourceURL)
	assert.Equal(t, "https://patents.google.com/patent/US1234567A/en?oq=US1234567A", rec.PDFURL)
}

func TestRecord_TitleEqualToIDIsBlanked(t *testing.T) {
	tests := []struct {
		name  string
		title string
	}{
		{"same as id", "US1234567A"},
		{"other bare identifier", "EP7654321B1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record(types.RawFieldMap{
				types.FieldID:    types.Str("US1234567A"),
				types.FieldTitle: types.Str(tt.title),
			})
			assert.Equal(t, "", rec.Title)
		})
	}
}

func TestRecord_IDNarrowedToEmbeddedNumber(t *testing.T) {
	rec := Record(types.RawFieldMap{types.FieldID: types.Str("Publication: EP 1234567")})
	assert.Equal(t, "EP1234567", rec.ID)

	rec = Record(types.RawFieldMap{types.FieldID: types.Str("1. US20170364492WEB CONTENT")})
	assert.Equal(t, "US20170364492", rec.ID)
	assert.Equal(t, "https://patents.google.com/patent/US20170364492/en", rec.SourceURL)

	rec = Record(types.RawFieldMap{types.FieldID: types.Str("3.US9876543Method")})
	assert.Equal(t, "US9876543", rec.ID)

	rec = Record(types.RawFieldMap{types.FieldID: types.Str("WO/2021/123456")})
	assert.Equal(t, "WO2021/123456", rec.ID)
	assert.Equal(t, "https://patents.google.com/patent/WO2021%2F123456/en", rec.SourceURL)

	rec = Record(types.RawFieldMap{types.FieldID: types.Str("wipo 3")})
	assert.Equal(t, "WIPO 3", rec.ID)
	assert.Equal(t, "https://patents.google.com/patent/WIPO%203/en", rec.SourceURL, "ids are escaped in synthesized urls")

	rec = Record(types.RawFieldMap{types.FieldID: types.Str("wipo-3")})
	assert.Equal(t, "WIPO-3", rec.ID, "unrecognized ids are kept, uppercased")
}

func TestInventors(t *testing.T) {
	tests := []struct {
		name string
		in   types.FieldValue
		want []string
	}{
		{"scalar split on semicolons", types.Str("Alice Smith; 12; Bob Lee"), []string{"Alice Smith", "Bob Lee"}},
		{"list cleaned", types.List("  Alice  Smith ", "", "42", "Bob Lee"), []string{"Alice Smith", "Bob Lee"}},
		{"single scalar", types.Str("Carol King"), []string{"Carol King"}},
		{"empty scalar", types.Str(""), []string{types.UnknownInventor}},
		{"only noise", types.List("1", " "), []string{types.UnknownInventor}},
		{"absent", types.FieldValue{}, []string{types.UnknownInventor}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Inventors(tt.in))
		})
	}
}

func TestRecord_Aliases(t *testing.T) {
	rec := Record(types.RawFieldMap{
		types.FieldID:        types.Str("US1234567A"),
		types.FieldInventor:  types.Str("Dana Ross"),
		types.FieldAssignee:  types.Str("  Acme   Corp "),
		types.FieldDetailURL: types.Str("https://patentscope.wipo.int/detail.jsf?docId=US1234567A"),
	})
	assert.Equal(t, []string{"Dana Ross"}, rec.Inventors)
	assert.Equal(t, "Acme Corp", rec.Applicant)
	assert.Equal(t, "https://patentscope.wipo.int/detail.jsf?docId=US1234567A", rec.SourceURL)
	assert.Equal(t, "https://patentscope.wipo.int/detail.jsf?docId=US1234567A&oq=US1234567A", rec.PDFURL)
}

func TestAbstract_Truncation(t *testing.T) {
	long := strings.Repeat("x", 650)
	got := Abstract(long)
	assert.Equal(t, strings.Repeat("x", 600)+"...", got)

	verbatim := strings.Repeat("y", 350)
	assert.Equal(t, verbatim, Abstract(verbatim), "under the record cap")
}

func TestRecord_SourceAndRank(t *testing.T) {
	rec := Record(types.RawFieldMap{
		types.FieldSource: types.Str("WIPO"),
		types.FieldRank:   types.Str("3"),
	})
	assert.Equal(t, types.SourceWIPO, rec.Source)
	assert.Equal(t, 3, rec.Rank)

	rec = Record(types.RawFieldMap{types.FieldRank: types.Str("first")})
	assert.Equal(t, 0, rec.Rank)
}

func TestRecord_Idempotent(t *testing.T) {
	inputs := []types.RawFieldMap{
		{},
		{
			types.FieldID:        types.Str("us1234567a"),
			types.FieldTitle:     types.Str("US1234567A — US1234567A: Widget"),
			types.FieldDate:      types.Str("Published 04.03.2021"),
			types.FieldInventors: types.Str("Alice Smith; 12; Bob Lee"),
			types.FieldAbstract:  types.Str(strings.Repeat("word ", 200)),
			types.FieldSource:    types.Str("google"),
			types.FieldRank:      types.Str("1"),
		},
		{
			types.FieldTitle:    types.Str("US1234567A Widget"),
			types.FieldDate:     types.Str("2021"),
			types.FieldAssignee: types.Str("Acme"),
			types.FieldPDFURL:   types.Str("https://example.com/a.pdf"),
		},
		{types.FieldID: types.Str("1. US20170364492WEB CONTENT")},
		{types.FieldID: types.Str("WO 2021/123456")},
		{
			types.FieldID:       types.Str("EP 1234567"),
			types.FieldTitle:    types.Str("EP1234567"),
			types.FieldAbstract: types.Str(strings.Repeat("é", 601)),
		},
	}
	for i, in := range inputs {
		once := Record(in)
		twice := Record(once.Raw())
		assert.Equal(t, once, twice, "input %d", i)
	}
}

func TestAll(t *testing.T) {
	recs := All([]types.RawFieldMap{
		{types.FieldID: types.Str("US1234567A")},
		{types.FieldID: types.Str("EP1234567")},
	})
	require.Len(t, recs, 2)
	assert.Equal(t, "US1234567A", recs[0].ID)
	assert.Equal(t, "EP1234567", recs[1].ID)
	assert.Empty(t, All(nil))
}

func TestDecodeJSON(t *testing.T) {
	raws, err := DecodeJSON(strings.NewReader(`[{"id":"us1","inventors":["A B", 12, null]},{"rank":2,"title":"T"}]`))
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, []string{"A B", "12", ""}, raws[0][types.FieldInventors].Items())
	assert.Equal(t, "2", raws[1].Get(types.FieldRank))

	raws, err = DecodeJSON(strings.NewReader(`{"id":"US1234567A"}`))
	require.NoError(t, err)
	require.Len(t, raws, 1)

	raws, err = DecodeJSON(strings.NewReader("  "))
	require.NoError(t, err)
	assert.Empty(t, raws)

	_, err = DecodeJSON(strings.NewReader(`{"id":{"nested":true}}`))
	assert.Error(t, err)
}
