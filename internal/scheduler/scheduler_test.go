package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestSchedulerRunsImmediately(t *testing.T) {
	called := make(chan struct{}, 1)
	s := New(func() error {
		called <- struct{}{}
		return nil
	})

	if err := s.Start("@daily"); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not run on startup")
	}
}

func TestSchedulerSurvivesRefreshError(t *testing.T) {
	called := make(chan struct{}, 1)
	s := New(func() error {
		called <- struct{}{}
		return errors.New("feed down")
	})

	if err := s.Start("@daily"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not run on startup")
	}

	// Stop must not hang even after a failed run
	s.Stop()
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := New(func() error { return nil })
	if err := s.Start("not a cron spec"); err == nil {
		t.Error("invalid cron spec should be rejected")
	}
}
