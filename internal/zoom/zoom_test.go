package zoom_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/zoom"
)

func hmacHex(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestAppContextRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := zoom.MintAppContext(&zoom.AppContext{
		MeetingID:     "m1",
		ParticipantID: "p1",
		IsHost:        true,
	}, secret, time.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("MintAppContext: %v", err)
	}

	ctx, err := zoom.ParseAppContext(token, secret)
	if err != nil {
		t.Fatalf("ParseAppContext: %v", err)
	}
	if ctx.MeetingID != "m1" || ctx.ParticipantID != "p1" || !ctx.IsHost {
		t.Fatalf("unexpected context %+v", ctx)
	}
}

func TestAppContextRejectsWrongSecret(t *testing.T) {
	token, err := zoom.MintAppContext(&zoom.AppContext{
		MeetingID: "m1", ParticipantID: "p1",
	}, []byte("right"), time.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("MintAppContext: %v", err)
	}

	if _, err := zoom.ParseAppContext(token, []byte("wrong")); err == nil {
		t.Fatalf("expected rejection with wrong secret")
	}
}

func TestAppContextRejectsExpired(t *testing.T) {
	token, err := zoom.MintAppContext(&zoom.AppContext{
		MeetingID: "m1", ParticipantID: "p1",
	}, []byte("s"), time.Now().Add(-time.Hour).Unix())
	if err != nil {
		t.Fatalf("MintAppContext: %v", err)
	}

	if _, err := zoom.ParseAppContext(token, []byte("s")); err == nil {
		t.Fatalf("expected rejection of expired token")
	}
}

func TestWebhookSignature(t *testing.T) {
	secret := "hook-secret"
	body := []byte(`{"event":"meeting.started"}`)
	ts := "1700000000"

	sig := "v0=" + hmacHex(secret, "v0:"+ts+":"+string(body))
	if !zoom.VerifyWebhookSignature(secret, ts, body, sig) {
		t.Fatalf("valid signature rejected")
	}
	if zoom.VerifyWebhookSignature(secret, ts, body, "v0=deadbeef") {
		t.Fatalf("bad signature accepted")
	}
	if zoom.VerifyWebhookSignature("other", ts, body, sig) {
		t.Fatalf("signature accepted with wrong secret")
	}
}

func TestValidationTokenEncryption(t *testing.T) {
	got := zoom.EncryptValidationToken("hook-secret", "abc123")
	want := hmacHex("hook-secret", "abc123")
	if got != want {
		t.Fatalf("validation token: want %s, got %s", want, got)
	}
}
