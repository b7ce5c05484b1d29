package wsproto_test

import (
	"testing"

	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/wsproto"
)

func upgradeRequest(key string) *api.Request {
	return &api.Request{
		Method:  "GET",
		Version: "HTTP/1.1",
		Headers: []api.Header{
			{Name: "Connection", Value: "Upgrade"},
			{Name: "Upgrade", Value: "websocket"},
			{Name: "Sec-WebSocket-Version", Value: "13"},
			{Name: "Sec-WebSocket-Key", Value: key},
		},
	}
}

func TestValidateUpgradeAccepted(t *testing.T) {
	req := upgradeRequest("dGhlIHNhbXBsZSBub25jZQ==")
	accept, err := wsproto.ValidateUpgrade(req)
	if err != nil {
		t.Fatal(err)
	}
	// RFC 6455 §1.3 worked example.
	const want = "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if accept != want {
		t.Errorf("got %q want %q", accept, want)
	}
}

func TestValidateUpgradeRejectsWrongVersion(t *testing.T) {
	req := upgradeRequest("dGhlIHNhbXBsZSBub25jZQ==")
	for i, h := range req.Headers {
		if h.Name == "Sec-WebSocket-Version" {
			req.Headers[i].Value = "8"
		}
	}
	if _, err := wsproto.ValidateUpgrade(req); err == nil {
		t.Fatal("expected rejection for unsupported version")
	}
}

func TestIsUpgradeRequest(t *testing.T) {
	req := upgradeRequest("dGhlIHNhbXBsZSBub25jZQ==")
	if !wsproto.IsUpgradeRequest(req) {
		t.Error("expected upgrade request to be recognized")
	}
	plain := &api.Request{Headers: []api.Header{{Name: "Upgrade", Value: "h2c"}}}
	if wsproto.IsUpgradeRequest(plain) {
		t.Error("h2c upgrade must not be recognized as websocket")
	}
}

func TestClientServerAcceptRoundTrip(t *testing.T) {
	key := wsproto.NewClientKey()
	req := upgradeRequest(key)
	accept, err := wsproto.ValidateUpgrade(req)
	if err != nil {
		t.Fatal(err)
	}
	if !wsproto.VerifyServerAccept(key, accept) {
		t.Error("client-computed accept verification failed")
	}
}
