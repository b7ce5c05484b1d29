package server

import (
	"testing"

	"github.com/corehttpd/corehttpd/control"
)

func TestParseListeningPortsPlain(t *testing.T) {
	opts, err := control.NewOptions([]control.Pair{{Name: control.OptListeningPorts, Value: "8080, 8081"}})
	if err != nil {
		t.Fatal(err)
	}
	listeners, err := parseListeningPorts(opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(listeners) != 2 {
		t.Fatalf("expected 2 listeners, got %d", len(listeners))
	}
	if listeners[0].Addr != ":8080" || listeners[0].IsTLS {
		t.Errorf("unexpected first listener: %+v", listeners[0])
	}
	if listeners[1].Addr != ":8081" || listeners[1].IsTLS {
		t.Errorf("unexpected second listener: %+v", listeners[1])
	}
}

func TestParseListeningPortsTLSSuffix(t *testing.T) {
	opts, err := control.NewOptions([]control.Pair{
		{Name: control.OptListeningPorts, Value: "8080,8443s"},
		{Name: control.OptTLSCertificate, Value: "/nonexistent/cert.pem"},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = parseListeningPorts(opts)
	if err == nil {
		t.Fatal("expected failure loading a nonexistent certificate")
	}
}

func TestParseListeningPortsTLSWithoutCertificateFails(t *testing.T) {
	opts, err := control.NewOptions([]control.Pair{{Name: control.OptListeningPorts, Value: "8443s"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parseListeningPorts(opts); err == nil {
		t.Fatal("expected failure when a TLS port has no tls_certificate configured")
	}
}

func TestParseListeningPortsEmptyFails(t *testing.T) {
	opts, err := control.NewOptions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parseListeningPorts(opts); err == nil {
		t.Fatal("expected failure on empty listening_ports")
	}
}

func TestParseListeningPortsRejectsGarbage(t *testing.T) {
	opts, err := control.NewOptions([]control.Pair{{Name: control.OptListeningPorts, Value: "notaport"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parseListeningPorts(opts); err == nil {
		t.Fatal("expected failure on a non-numeric listening_ports entry")
	}
}
