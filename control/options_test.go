package control_test

import (
	"testing"

	"github.com/corehttpd/corehttpd/control"
)

func TestNewOptionsAppliesDefaults(t *testing.T) {
	opts, err := control.NewOptions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts.GetInt(control.OptNumThreads) != 50 {
		t.Errorf("expected default num_threads=50, got %d", opts.GetInt(control.OptNumThreads))
	}
	if !opts.GetBool(control.OptEnableKeepAlive) {
		t.Error("expected enable_keep_alive default yes")
	}
}

func TestNewOptionsOverridesDefaults(t *testing.T) {
	opts, err := control.NewOptions([]control.Pair{
		{Name: control.OptNumThreads, Value: "8"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if opts.GetInt(control.OptNumThreads) != 8 {
		t.Errorf("expected override to 8, got %d", opts.GetInt(control.OptNumThreads))
	}
}

func TestNewOptionsRejectsUnknownName(t *testing.T) {
	_, err := control.NewOptions([]control.Pair{{Name: "bogus_option", Value: "x"}})
	if err == nil {
		t.Fatal("expected rejection of unknown option name")
	}
}

func TestMustGetPanicsOnUnknown(t *testing.T) {
	opts, _ := control.NewOptions(nil)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown option name")
		}
	}()
	opts.MustGet("bogus_option")
}

func TestGetDurationMs(t *testing.T) {
	opts, _ := control.NewOptions([]control.Pair{{Name: control.OptRequestTimeoutMs, Value: "5000"}})
	if got := opts.GetDurationMs(control.OptRequestTimeoutMs); got.Milliseconds() != 5000 {
		t.Errorf("got %v", got)
	}
}
