package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    TicketStatus
		to      TicketStatus
		allowed bool
	}{
		{TicketStatusReserved, TicketStatusPaid, true},
		{TicketStatusReserved, TicketStatusCancelled, true},
		{TicketStatusReserved, TicketStatusUsed, false},
		{TicketStatusPaid, TicketStatusUsed, true},
		{TicketStatusPaid, TicketStatusCancelled, true},
		{TicketStatusPaid, TicketStatusReserved, false},
		{TicketStatusUsed, TicketStatusCancelled, false},
		{TicketStatusUsed, TicketStatusPaid, false},
		{TicketStatusCancelled, TicketStatusReserved, false},
		{TicketStatusCancelled, TicketStatusPaid, false},
	}

	for _, tt := range tests {
		ticket := Ticket{Status: tt.from}
		assert.Equal(t, tt.allowed, ticket.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestTicketCanBeCancelled(t *testing.T) {
	assert.True(t, (&Ticket{Status: TicketStatusReserved}).CanBeCancelled())
	assert.True(t, (&Ticket{Status: TicketStatusPaid}).CanBeCancelled())
	assert.False(t, (&Ticket{Status: TicketStatusUsed}).CanBeCancelled())
	assert.False(t, (&Ticket{Status: TicketStatusCancelled}).CanBeCancelled())
}

func TestActiveTicketStatuses(t *testing.T) {
	// Cancelled tickets must not count against capacity.
	assert.NotContains(t, ActiveTicketStatuses, TicketStatusCancelled)
	assert.ElementsMatch(t,
		[]TicketStatus{TicketStatusReserved, TicketStatusPaid, TicketStatusUsed},
		ActiveTicketStatuses)
}
