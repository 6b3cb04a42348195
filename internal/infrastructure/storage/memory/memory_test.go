package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/domain/device"
	"tracker/internal/infrastructure/storage/storagetest"
)

func TestStorage_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) device.Repository {
		return New()
	})
}

func TestStorage_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.SaveDevice(ctx, &device.Device{Owner: "alice", EnteredID: "A", CustomName: "Car"})
	require.NoError(t, err)

	d, err := s.GetDevice(ctx, "alice", "A")
	require.NoError(t, err)
	d.CustomName = "changed"

	again, err := s.GetDevice(ctx, "alice", "A")
	require.NoError(t, err)
	assert.Equal(t, "Car", again.CustomName)
}
