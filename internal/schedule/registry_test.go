package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCreateSubscriptionSchedulesSkipsAllPastOffsets(t *testing.T) {
	r := &Registry{}
	startDate := time.Now().Add(-24 * time.Hour)

	err := r.CreateSubscriptionSchedules(context.Background(), uuid.New(), uuid.New(), startDate, []int64{3600, 86400})

	if err != nil {
		t.Fatalf("CreateSubscriptionSchedules() = %v, want nil (a nil schedules client must never be touched)", err)
	}
}

func TestCreateSubscriptionSchedulesSkipsWhenNoOffsets(t *testing.T) {
	r := &Registry{}

	err := r.CreateSubscriptionSchedules(context.Background(), uuid.New(), uuid.New(), time.Now(), nil)

	if err != nil {
		t.Fatalf("CreateSubscriptionSchedules() = %v, want nil", err)
	}
}

func TestIsAlreadyExists(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("schedule already exists"), true},
		{errors.New("some other failure"), false},
	}
	for _, c := range cases {
		if got := isAlreadyExists(c.err); got != c.want {
			t.Errorf("isAlreadyExists(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("schedule not found"), true},
		{errors.New("some other failure"), false},
	}
	for _, c := range cases {
		if got := isNotFound(c.err); got != c.want {
			t.Errorf("isNotFound(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
