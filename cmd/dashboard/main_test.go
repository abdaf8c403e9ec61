package main

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedFrontend(t *testing.T) {
	sub := frontendFS(frontendFiles)
	require.NotNil(t, sub)

	for _, name := range []string{"index.html", "assets/app.js", "assets/style.css"} {
		_, err := fs.Stat(sub, name)
		assert.NoError(t, err, name)
	}
}

func TestFrontendFSWithoutIndex(t *testing.T) {
	files := fstest.MapFS{
		"frontend/assets/app.js": {Data: []byte("console.log(1)")},
	}
	assert.Nil(t, frontendFS(files))
}

func TestRunFailsWithoutDataset(t *testing.T) {
	t.Setenv("BIKE_CONFIG_FILE", "")
	t.Setenv("BIKE_DATASET_FILE", t.TempDir()+"/missing.csv")
	t.Setenv("BIKE_LOGGING_OUTPUT", "console")

	assert.Equal(t, 1, run(context.Background()))
}
