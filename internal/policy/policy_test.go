package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabiplan/backend/internal/domain"
	"github.com/tabiplan/backend/internal/policy"
)

func sharedTrip() domain.Trip {
	return domain.Trip{
		CreatedBy:  "u1",
		SharedWith: []string{"u2", "u4"},
	}
}

func TestCanRead(t *testing.T) {
	trip := sharedTrip()

	tests := []struct {
		name      string
		principal string
		want      bool
	}{
		{"owner", "u1", true},
		{"share member", "u2", true},
		{"second share member", "u4", true},
		{"stranger", "u3", false},
		{"empty principal", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.CanRead(trip, tt.principal))
		})
	}
}

func TestCanWrite_OwnerOnly(t *testing.T) {
	trip := sharedTrip()

	assert.True(t, policy.CanWrite(trip, "u1"))
	// Share members are read-only — membership must not grant write.
	assert.False(t, policy.CanWrite(trip, "u2"))
	assert.False(t, policy.CanWrite(trip, "u3"))
	assert.False(t, policy.CanWrite(trip, ""))
}

func TestCanWrite_OwnerInShareList(t *testing.T) {
	// An owner erroneously listed in its own share list still writes as
	// owner, and removing it from the list changes nothing.
	trip := sharedTrip()
	trip.SharedWith = append(trip.SharedWith, "u1")

	assert.True(t, policy.CanWrite(trip, "u1"))
}

func TestCanDelete_MatchesCanWrite(t *testing.T) {
	trip := sharedTrip()

	for _, id := range []string{"u1", "u2", "u3", ""} {
		assert.Equal(t, policy.CanWrite(trip, id), policy.CanDelete(trip, id), "principal %q", id)
	}
}
