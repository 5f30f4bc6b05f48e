package cancellation

import (
	"errors"
	"testing"
	"time"
)

func TestNone(t *testing.T) {
	if err := None.Check("anything"); err != nil {
		t.Errorf("None cancelled: %v", err)
	}
}

func TestBool(t *testing.T) {
	var flag Bool
	if err := flag.Check("work"); err != nil {
		t.Errorf("fresh flag cancelled: %v", err)
	}
	flag.Set()
	err := flag.Check("work")
	var cancelled *Error
	if !errors.As(err, &cancelled) {
		t.Fatalf("set flag: got %v, want *Error", err)
	}
	if cancelled.At != "work" {
		t.Errorf("At: got %q, want %q", cancelled.At, "work")
	}
}

func TestAfterDuration(t *testing.T) {
	flag := AfterDuration(time.Hour, nil)
	if err := flag.Check("work"); err != nil {
		t.Errorf("fresh timed flag cancelled: %v", err)
	}

	expired := AfterDuration(-time.Second, nil)
	if err := expired.Check("work"); err == nil {
		t.Error("expired timed flag did not cancel")
	}
}

func TestAfterDurationParent(t *testing.T) {
	var parent Bool
	flag := AfterDuration(time.Hour, &parent)
	parent.Set()
	if err := flag.Check("work"); err == nil {
		t.Error("parent cancellation was not observed")
	}
}
