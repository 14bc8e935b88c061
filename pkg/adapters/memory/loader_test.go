package memory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
id: root
children:
  - id: panel1
    behaviors: "TabPanel"
    attrs:
      data-selected: "tab1"
    children:
      - id: tab1
        behaviors: "Tab"
      - id: upload1
        component: "Uploader"
      - text: "drop zone"
`

func TestParseDocument(t *testing.T) {
	doc, err := memory.ParseDocument([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "root", doc.Root().ID())

	panel := doc.FindByID("panel1")
	require.NotNil(t, panel)
	v, ok := panel.Attr(domain.AttrBehavior)
	require.True(t, ok)
	assert.Equal(t, "TabPanel", v)
	v, ok = panel.Attr("data-selected")
	require.True(t, ok)
	assert.Equal(t, "tab1", v)

	upload := doc.FindByID("upload1")
	require.NotNil(t, upload)
	v, ok = upload.Attr(domain.AttrComponent)
	require.True(t, ok)
	assert.Equal(t, "Uploader", v)

	children := panel.Children()
	require.Len(t, children, 3)
	text, ok := children[2].(*memory.Node)
	require.True(t, ok)
	assert.False(t, text.IsElement())
	assert.Equal(t, "drop zone", text.Text())
}

func TestParseDocument_Invalid(t *testing.T) {
	_, err := memory.ParseDocument([]byte("id: [not: valid"))
	require.Error(t, err)
}

func TestLoadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	doc, err := memory.LoadDocument(path)
	require.NoError(t, err)
	assert.NotNil(t, doc.FindByID("tab1"))

	_, err = memory.LoadDocument(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
