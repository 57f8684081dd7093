package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRentalStatus(t *testing.T) {
	for _, s := range []string{"", "pending", "approved", "paid", "rented", "returning"} {
		status, ok := ParseRentalStatus(s)
		assert.True(t, ok, s)
		assert.Equal(t, s, string(status))
	}

	_, ok := ParseRentalStatus("Pending")
	assert.False(t, ok)
	_, ok = ParseRentalStatus("completed")
	assert.False(t, ok)
	assert.Equal(t, "idle", RentalStatusIdle.String())
}

func TestListingOverdue(t *testing.T) {
	end := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := &Listing{RentalStatus: RentalStatusRented, RentalEndDate: end.UnixMilli()}

	assert.False(t, l.IsOverdue(end))
	assert.Equal(t, 0, l.OverdueDays(end.Add(-time.Hour)))
	assert.True(t, l.IsOverdue(end.Add(time.Minute)))
	assert.Equal(t, 1, l.OverdueDays(end.Add(time.Minute)))
	assert.Equal(t, 2, l.OverdueDays(end.Add(25*time.Hour)))

	l.RentalStatus = RentalStatusPaid
	assert.False(t, l.IsOverdue(end.Add(48*time.Hour)))
}

func TestListingCloneIsDeep(t *testing.T) {
	l := &Listing{
		RatedBy:   map[string]float64{"u1": 4},
		FlaggedBy: []string{"u2"},
		Images:    []ListingImage{{URL: "a"}},
	}

	c := l.Clone()
	c.RatedBy["u1"] = 1
	c.FlaggedBy[0] = "x"
	c.Images[0].URL = "b"

	assert.Equal(t, 4.0, l.RatedBy["u1"])
	assert.Equal(t, "u2", l.FlaggedBy[0])
	assert.Equal(t, "a", l.Images[0].URL)
	assert.Nil(t, (*Listing)(nil).Clone())
}

func TestRestoreAvailability(t *testing.T) {
	l := &Listing{RentalStatus: RentalStatusRented, Available: true}
	l.RestoreAvailability()
	assert.False(t, l.Available)
	assert.True(t, l.OutOfStock)

	l.ClearRental()
	l.Flagged = true
	l.RestoreAvailability()
	assert.False(t, l.Available)
	assert.False(t, l.OutOfStock)

	l.Flagged = false
	l.RestoreAvailability()
	assert.True(t, l.Available)
}

func TestConversationKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, ConversationKey("l1", "bob", "alice"), ConversationKey("l1", "alice", "bob"))
	assert.Equal(t, "2:l1_5:alice_3:bob", ConversationKey("l1", "bob", "alice"))
	assert.NotEqual(t, ConversationKey("L", "x_y", "z"), ConversationKey("L", "x", "y_z"))
	assert.NotEqual(t, ConversationKey("a_b", "c", "d"), ConversationKey("a", "b_c", "d"))

	c := NewConversation("l1", "bob", "alice")
	assert.Equal(t, []string{"alice", "bob"}, c.Participants)
	assert.True(t, c.Matches("alice", "bob"))
	assert.False(t, c.Matches("alice", "carol"))
	assert.Equal(t, "alice", c.Other("bob"))
}
