package formmeta_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-metadata/pkg/formmeta"
)

func TestKindSingleInstance(t *testing.T) {
	tests := []struct {
		kind   formmeta.Kind
		single bool
	}{
		{formmeta.KindFormLicense, true},
		{formmeta.KindDataLicense, true},
		{formmeta.KindPublicLink, true},
		{formmeta.KindSource, true},
		{formmeta.KindMapboxLayer, true},
		{formmeta.KindSupportingDoc, false},
		{formmeta.KindMedia, false},
		{formmeta.KindExternalExport, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.single, tt.kind.SingleInstance(), string(tt.kind))
	}
}

func TestKindValid(t *testing.T) {
	assert.True(t, formmeta.KindMedia.Valid())
	assert.True(t, formmeta.KindMapboxLayer.Valid())
	assert.False(t, formmeta.Kind("").Valid())
	assert.False(t, formmeta.Kind("banana").Valid())
}

func TestExportValueParsing(t *testing.T) {
	md := &formmeta.MetaData{Value: "Quarterly Report|https://host/exports/q1.xls"}
	assert.Equal(t, "Quarterly Report", md.ExportName())
	assert.Equal(t, "https://host/exports/q1.xls", md.ExportURL())
	assert.Equal(t, "https://host/exports/q1.templates", md.ExportTemplate())
}

func TestExportValueWithoutSeparator(t *testing.T) {
	md := &formmeta.MetaData{Value: "no separator here"}
	assert.Empty(t, md.ExportName())
	assert.Empty(t, md.ExportURL())
	assert.Empty(t, md.ExportTemplate())
}

func TestHasFile(t *testing.T) {
	assert.False(t, (&formmeta.MetaData{}).HasFile())
	assert.True(t, (&formmeta.MetaData{FileKey: "bob/docs/a.pdf"}).HasFile())
}

func TestAttachmentKey(t *testing.T) {
	assert.Equal(t, "bob/formid-media/cat.png", formmeta.AttachmentKey("bob", formmeta.KindMedia, "cat.png"))
	assert.Equal(t, "bob/docs/survey.pdf", formmeta.AttachmentKey("bob", formmeta.KindSupportingDoc, "survey.pdf"))
	assert.Equal(t, "bob/docs/source.csv", formmeta.AttachmentKey("bob", formmeta.KindSource, "source.csv"))
}

func TestFilterKind(t *testing.T) {
	formID := uuid.New()
	metadata := []*formmeta.MetaData{
		{ID: 3, FormID: formID, Kind: formmeta.KindMedia, Value: "c.png"},
		{ID: 2, FormID: formID, Kind: formmeta.KindFormLicense, Value: "CC0"},
		{ID: 1, FormID: formID, Kind: formmeta.KindMedia, Value: "a.png"},
	}

	media := formmeta.FilterKind(metadata, formmeta.KindMedia)
	assert.Len(t, media, 2)
	assert.Equal(t, int64(3), media[0].ID)
	assert.Equal(t, int64(1), media[1].ID)

	assert.Empty(t, formmeta.FilterKind(metadata, formmeta.KindSource))
}
