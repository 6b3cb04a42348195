package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/app/client"
)

func TestAppFromContext(t *testing.T) {
	_, err := AppFromContext(context.Background())
	assert.ErrorIs(t, err, ErrAppNotInitialized)

	var nilApp *client.App
	_, err = AppFromContext(WithApp(context.Background(), nilApp))
	assert.ErrorIs(t, err, ErrAppNotInitialized)

	app := &client.App{}
	got, err := AppFromContext(WithApp(context.Background(), app))
	require.NoError(t, err)
	assert.Same(t, app, got)
}
