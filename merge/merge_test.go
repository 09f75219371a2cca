package merge

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const decl = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>`

func write(t *testing.T, m *Merger, device bool) string {
	t.Helper()
	var buf bytes.Buffer
	var err error
	if device {
		_, err = m.WriteDeviceConfigTo(&buf)
	} else {
		_, err = m.WriteTo(&buf)
	}
	require.NoError(t, err)
	return buf.String()
}

func TestMerger_Empty(t *testing.T) {
	m := New()
	assert.Equal(t, decl+`<config/>`, write(t, m, false))
	assert.Equal(t, decl+`<config/>`, write(t, m, true))
	assert.Equal(t, 0, m.Len())
}

func TestMerger_MergeXML(t *testing.T) {
	m := New()
	require.NoError(t, m.MergeXML(strings.NewReader(`<config><compat-change id="1234" name="TEST_CHANGE"><meta-data definedIn="some.Class"/></compat-change></config>`)))
	require.NoError(t, m.MergeXML(strings.NewReader(decl+"\n<config>\n  <compat-change id=\"1235\" name=\"TEST_CHANGE2\"/>\n</config>\n")))
	assert.Equal(t, 2, m.Len())

	assert.Equal(t, decl+`<config>`+
		`<compat-change id="1234" name="TEST_CHANGE"><meta-data definedIn="some.Class"/></compat-change>`+
		`<compat-change id="1235" name="TEST_CHANGE2"/>`+
		`</config>`, write(t, m, false))
	assert.Equal(t, decl+`<config>`+
		`<compat-change id="1234" name="TEST_CHANGE"/>`+
		`<compat-change id="1235" name="TEST_CHANGE2"/>`+
		`</config>`, write(t, m, true))

	// writing does not consume the merged state
	assert.Equal(t, write(t, m, false), write(t, m, false))
}

func TestMerger_MergeXML_Errors(t *testing.T) {
	m := New()
	assert.True(t, errors.Is(m.MergeXML(strings.NewReader(decl)), ErrNoRoot))
	assert.Error(t, m.MergeXML(strings.NewReader(`<config><compat-change`)))
	assert.Equal(t, 0, m.Len())
}

func makeJar(t *testing.T, entries map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestMerger_MergeJar(t *testing.T) {
	entries := map[string]string{
		"META-INF/MANIFEST.MF":                      "Manifest-Version: 1.0\n",
		"example.com/util/Change_compat_config.xml": `<config><compat-change id="1" name="A"/></config>`,
		"example.com/util/compat_config.xml":        `<config><compat-change id="9" name="NOT_MERGED"/></config>`,
		"example.com/net/Net_compat_config.xml":     `<config><compat-change id="2" name="B" disabled="true"/></config>`,
	}
	jar := makeJar(t, entries,
		"META-INF/MANIFEST.MF",
		"example.com/util/Change_compat_config.xml",
		"example.com/util/compat_config.xml",
		"example.com/net/Net_compat_config.xml")

	m := New()
	n, err := m.MergeJar(bytes.NewReader(jar), int64(len(jar)))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, decl+`<config><compat-change id="1" name="A"/><compat-change id="2" name="B" disabled="true"/></config>`, write(t, m, false))
}

func TestMerger_Files(t *testing.T) {
	dir := t.TempDir()
	jar := makeJar(t, map[string]string{"a/T_compat_config.xml": `<config><compat-change id="1" name="A"/></config>`}, "a/T_compat_config.xml")
	jarPath := filepath.Join(dir, "lib.jar")
	require.NoError(t, os.WriteFile(jarPath, jar, 0o644))
	xmlPath := filepath.Join(dir, "extra.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(`<config><compat-change id="2" name="B"/></config>`), 0o644))
	badPath := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(badPath, []byte(`<config>`), 0o644))

	m := New()
	n, err := m.MergeJarFile(jarPath)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, m.MergeXMLFile(xmlPath))
	assert.Equal(t, 2, m.Len())

	err = m.MergeXMLFile(badPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.xml")

	_, err = m.MergeJarFile(xmlPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, zip.ErrFormat))

	_, err = m.MergeJarFile(filepath.Join(dir, "missing.jar"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
