package keys

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewStoreLoadsCompiledKeys(t *testing.T) {
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, pk := range Compiled {
		if store.Lookup(pk.KeyID) == nil {
			t.Errorf("Lookup(%q) = nil, want a compiled key", pk.KeyID)
		}
	}
	if store.Lookup("SHA256:unknown") != nil {
		t.Error("Lookup of an unrecognized keyid should return nil")
	}
}

func TestCanonicalMessage(t *testing.T) {
	got := string(CanonicalMessage("yarn", "4.1.0", "sha512-abc"))
	want := "yarn@4.1.0:sha512-abc"
	if got != want {
		t.Errorf("CanonicalMessage() = %q, want %q", got, want)
	}
}

func TestVerifyASN1(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	message := CanonicalMessage("npm", "10.0.0", "sha512-deadbeef")
	digest := sha256.Sum256(message)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	if err != nil {
		t.Fatalf("SignASN1: %v", err)
	}

	ok, err := VerifyASN1(&priv.PublicKey, message, base64.StdEncoding.EncodeToString(sig))
	if err != nil {
		t.Fatalf("VerifyASN1: %v", err)
	}
	if !ok {
		t.Error("VerifyASN1 should accept a signature produced over the same message")
	}

	ok, err = VerifyASN1(&priv.PublicKey, []byte("different message"), base64.StdEncoding.EncodeToString(sig))
	if err != nil {
		t.Fatalf("VerifyASN1: %v", err)
	}
	if ok {
		t.Error("VerifyASN1 should reject a signature over a different message")
	}
}

func TestVerifyASN1InvalidEncoding(t *testing.T) {
	priv, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if _, err := VerifyASN1(&priv.PublicKey, []byte("msg"), "not-base64!!"); err == nil {
		t.Error("expected error for invalid base64 signature")
	}
}

func TestCheckDrift(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{
				{"keyid": Compiled[0].KeyID},
				{"keyid": "SHA256:rotatedKeyNotInCompiledSet"},
			},
		})
	}))
	defer srv.Close()

	drifted, err := CheckDrift(context.Background(), srv.Client(), srv.URL)
	if err == nil {
		t.Fatal("expected ErrKeyDrift when the registry publishes an unrecognized keyid")
	}
	if len(drifted) != 1 || drifted[0] != "SHA256:rotatedKeyNotInCompiledSet" {
		t.Errorf("drifted = %v, want [SHA256:rotatedKeyNotInCompiledSet]", drifted)
	}
}

func TestCheckDriftNoDrift(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{
				{"keyid": Compiled[0].KeyID},
				{"keyid": Compiled[1].KeyID},
			},
		})
	}))
	defer srv.Close()

	drifted, err := CheckDrift(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("CheckDrift: %v", err)
	}
	if len(drifted) != 0 {
		t.Errorf("drifted = %v, want empty", drifted)
	}
}
