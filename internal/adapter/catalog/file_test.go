package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/ticketchief/internal/adapter/catalog"
)

const sample = `[
	// opening night
	{"count": 40, "artist": "Frosty Five", "venue": "Ice Hall", "datetime": "2026-12-24T20:00:00Z"},
	/* matinee */
	{"count": 0, "artist": "Sleet", "venue": "Harbor Stage", "datetime": "2027-01-02T19:30:00+01:00"},
]`

func TestParse(t *testing.T) {
	events, err := catalog.Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, 0, events[0].ID)
	assert.Equal(t, "Frosty Five", events[0].Artist)
	assert.Equal(t, "Ice Hall", events[0].Venue)
	assert.Equal(t, 40, events[0].Remaining)
	assert.True(t, events[0].Datetime.Equal(time.Date(2026, 12, 24, 20, 0, 0, 0, time.UTC)))

	assert.Equal(t, 1, events[1].ID)
	assert.True(t, events[1].IsSoldOut())
	assert.True(t, events[1].Datetime.Equal(time.Date(2027, 1, 2, 18, 30, 0, 0, time.UTC)))
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":       `{{`,
		"empty":          `[]`,
		"negative count": `[{"count": -1, "artist": "a", "venue": "v", "datetime": "2026-12-24T20:00:00Z"}]`,
		"bad datetime":   `[{"count": 1, "artist": "a", "venue": "v", "datetime": "tomorrow"}]`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestFileCatalog_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	events, err := catalog.NewFileCatalog(path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 2)

	_, err = catalog.NewFileCatalog(filepath.Join(t.TempDir(), "missing.json")).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
