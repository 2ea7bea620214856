package locations

import (
	"encoding/json"
	"testing"

	"github.com/cardshed/pickwick/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FlatForm(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("locations.json", `{"DSK": "Drawer 1", "blb": "Drawer 2"}`)

	m, err := Load(env.Path("locations.json"))
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "Drawer 1", m.Resolve("DSK"))
	// Keys are upper-cased on load
	assert.Equal(t, "Drawer 2", m.Resolve("BLB"))
}

func TestLoad_NestedForm(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("locations.json", `{"drawer_mapping": {"mh3": "Box A", "LTR": "Box B"}}`)

	m, err := Load(env.Path("locations.json"))
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "Box A", m.Resolve("MH3"))
	assert.Equal(t, "Box B", m.Resolve("ltr"))
}

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	env := testutil.NewTestEnv(t)

	m, err := Load(env.Path("does-not-exist.json"))
	require.NoError(t, err)

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, Unassigned, m.Resolve("DSK"))
}

func TestLoad_MalformedJSON(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("locations.json", `{not json`)

	_, err := Load(env.Path("locations.json"))
	assert.Error(t, err)
}

func TestLoad_MalformedNestedMapping(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("locations.json", `{"drawer_mapping": "not an object"}`)

	_, err := Load(env.Path("locations.json"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("locations.json", `{"DSK": "Drawer 1", "EMPTY": ""}`)

	m, err := Load(env.Path("locations.json"))
	require.NoError(t, err)

	testCases := []struct {
		name     string
		set      string
		expected string
	}{
		{
			name:     "exact match",
			set:      "DSK",
			expected: "Drawer 1",
		},
		{
			name:     "case-insensitive match",
			set:      "dsk",
			expected: "Drawer 1",
		},
		{
			name:     "whitespace tolerated",
			set:      " dsk ",
			expected: "Drawer 1",
		},
		{
			name:     "unknown set",
			set:      "ZZZ",
			expected: Unassigned,
		},
		{
			name:     "empty assignment counts as unassigned",
			set:      "EMPTY",
			expected: Unassigned,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, m.Resolve(tc.set))
		})
	}
}

func TestAssign_PersistsImmediately(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("locations.json")

	m, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, m.Assign("dsk", "Drawer 7"))

	// The write happens as part of Assign, before any explicit Save
	env.RequireFileExists("locations.json")

	// Round-trip: a reload resolves the same way
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Drawer 7", reloaded.Resolve("DSK"))
}

func TestAssign_Overwrites(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("locations.json")

	m, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, m.Assign("DSK", "Drawer 1"))
	require.NoError(t, m.Assign("DSK", "Drawer 2"))

	assert.Equal(t, "Drawer 2", m.Resolve("DSK"))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Drawer 2", reloaded.Resolve("DSK"))
}

func TestAssign_RejectsEmptyInput(t *testing.T) {
	env := testutil.NewTestEnv(t)

	m, err := Load(env.Path("locations.json"))
	require.NoError(t, err)

	assert.Error(t, m.Assign("", "Drawer 1"))
	assert.Error(t, m.Assign("DSK", ""))
	assert.Error(t, m.Assign("DSK", "   "))
}

func TestSave_FlatSortedForm(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("locations.json")

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, m.Assign("MH3", "Box A"))
	require.NoError(t, m.Assign("BLB", "Drawer 2"))

	content := env.ReadFile("locations.json")

	// Always saved in the flat form, never nested
	var flat map[string]string
	require.NoError(t, json.Unmarshal(content, &flat))
	assert.Equal(t, map[string]string{"MH3": "Box A", "BLB": "Drawer 2"}, flat)

	// Two-space indent, keys in sorted order
	expected := "{\n  \"BLB\": \"Drawer 2\",\n  \"MH3\": \"Box A\"\n}"
	assert.Equal(t, expected, string(content))
}

func TestSave_NestedInputSavedFlat(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("locations.json", `{"drawer_mapping": {"DSK": "Drawer 1"}}`)

	m, err := Load(env.Path("locations.json"))
	require.NoError(t, err)
	require.NoError(t, m.Assign("BLB", "Drawer 2"))

	reloaded := env.ReadFileString("locations.json")
	assert.NotContains(t, reloaded, "drawer_mapping")
	assert.Contains(t, reloaded, `"DSK": "Drawer 1"`)
	assert.Contains(t, reloaded, `"BLB": "Drawer 2"`)
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("locations.json")

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, m.Assign("DSK", "Drawer 1"))

	files := env.ListFiles(".")
	assert.Equal(t, []string{"locations.json"}, files)
}

func TestSets(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("locations.json", `{"mh3": "Box A", "DSK": "Drawer 1", "blb": "Drawer 2"}`)

	m, err := Load(env.Path("locations.json"))
	require.NoError(t, err)

	assert.Equal(t, []string{"BLB", "DSK", "MH3"}, m.Sets())
}

func TestLabels_NaturalSort(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("locations.json", `{
		"AAA": "Drawer 10",
		"BBB": "Drawer 2",
		"CCC": "Drawer 1",
		"DDD": "Drawer 2",
		"EEE": "Box A"
	}`)

	m, err := Load(env.Path("locations.json"))
	require.NoError(t, err)

	// Distinct labels, numbers compared numerically
	assert.Equal(t, []string{"Box A", "Drawer 1", "Drawer 2", "Drawer 10"}, m.Labels())
}

func TestMissing(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("locations.json", `{"DSK": "Drawer 1"}`)

	m, err := Load(env.Path("locations.json"))
	require.NoError(t, err)

	missing := m.Missing([]string{"dsk", "MH3", "blb", "MH3", "", " "})
	assert.Equal(t, []string{"BLB", "MH3"}, missing)
}

func TestNaturalLess(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{
			name:     "plain text",
			a:        "Box A",
			b:        "Box B",
			expected: true,
		},
		{
			name:     "numeric runs compared as numbers",
			a:        "Drawer 2",
			b:        "Drawer 10",
			expected: true,
		},
		{
			name:     "reverse numeric",
			a:        "Drawer 10",
			b:        "Drawer 2",
			expected: false,
		},
		{
			name:     "case-insensitive",
			a:        "drawer 1",
			b:        "Drawer 2",
			expected: true,
		},
		{
			name:     "leading zeros",
			a:        "Drawer 02",
			b:        "Drawer 3",
			expected: true,
		},
		{
			name:     "prefix orders first",
			a:        "Drawer",
			b:        "Drawer 1",
			expected: true,
		},
		{
			name:     "equal strings",
			a:        "Drawer 1",
			b:        "Drawer 1",
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, naturalLess(tc.a, tc.b))
		})
	}
}
