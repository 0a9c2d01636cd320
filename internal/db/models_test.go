package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookingStatus(t *testing.T) {
	for _, raw := range []string{"confirmed", "active", "completed", "cancelled"} {
		status, err := ParseBookingStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, BookingStatus(raw), status)
	}

	_, err := ParseBookingStatus("pending")
	assert.Error(t, err)
	_, err = ParseBookingStatus("Confirmed")
	assert.Error(t, err)
}

func TestBookingStatusTerminal(t *testing.T) {
	assert.False(t, BookingConfirmed.Terminal())
	assert.False(t, BookingActive.Terminal())
	assert.True(t, BookingCompleted.Terminal())
	assert.True(t, BookingCancelled.Terminal())
}

func TestParseVehicleStatus(t *testing.T) {
	for _, raw := range []string{"Pending", "Approved", "Rejected"} {
		status, err := ParseVehicleStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, VehicleStatus(raw), status)
	}

	_, err := ParseVehicleStatus("approved")
	assert.Error(t, err)
}
