package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActorCanManageField(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	coach := uuid.New()
	other := uuid.New()
	field := &Field{OwnerID: owner, CoachID: &coach}

	testCases := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin", Actor{ID: other, Role: RoleAdmin}, true},
		{"owner of field", Actor{ID: owner, Role: RoleOwner}, true},
		{"academy owner of field", Actor{ID: owner, Role: RoleOwnerAcademy}, true},
		{"owner of other field", Actor{ID: other, Role: RoleOwner}, false},
		{"coach of field", Actor{ID: coach, Role: RoleCoach}, true},
		{"other coach", Actor{ID: other, Role: RoleCoach}, false},
		{"plain user", Actor{ID: owner, Role: RoleUser}, false},
		{"unknown role", Actor{ID: owner, Role: "Guest"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.actor.CanManageField(field))
		})
	}

	assert.False(t, Actor{Role: RoleAdmin}.CanManageField(nil))
}

func TestOrderStatusFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, OrderStatusPaid, OrderStatusFor(PaymentStatusPaid))
	assert.Equal(t, OrderStatusPending, OrderStatusFor(PaymentStatusPending))
	assert.Equal(t, OrderStatusCancelled, OrderStatusFor(PaymentStatusFailed))
	assert.Equal(t, OrderStatusRefunded, OrderStatusFor(PaymentStatusRefunded))
}
