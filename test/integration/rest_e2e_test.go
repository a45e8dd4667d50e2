// This file (rest_e2e_test.go) verifies key delivery over a live HTTP
// server: two parties obtain the same session key through the REST API
// and use it for authenticated encryption, and the link endpoints report
// the exchange.
package integration

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v3/test"

	"github.com/qstcs/qkd/pkg/api"
	"github.com/qstcs/qkd/pkg/crypto"
	"github.com/qstcs/qkd/pkg/kms"
)

func postJSON(t *testing.T, url string, body interface{}, out interface{}) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

// TestE2E_RESTKeyDelivery runs the full key lifecycle against a live
// server: create, join, encrypt with the delivered keys, inspect link
// health and reset.
func TestE2E_RESTKeyDelivery(t *testing.T) {
	lim := test.TimeOut(30 * time.Second)
	defer lim.Stop()

	loggerFactory := logging.NewDefaultLoggerFactory()

	manager := kms.NewManager(kms.ManagerConfig{
		LoggerFactory: loggerFactory,
	})
	server, err := api.NewServer(api.ServerConfig{
		Addr:          "127.0.0.1:0",
		Manager:       manager,
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Shutdown(nil)

	base := fmt.Sprintf("http://%s/v1", server.Addr())

	// Alpha requests a session key for the alpha-bravo pair.
	var created api.SessionKeyResponse
	status := postJSON(t, base+"/sessions", api.CreateSessionRequest{
		Initiator: "alpha",
		Peer:      "bravo",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create session status = %d, want %d", status, http.StatusCreated)
	}

	alphaKey, err := hex.DecodeString(created.KeyHex)
	if err != nil {
		t.Fatalf("create returned invalid key hex: %v", err)
	}
	if len(alphaKey) != crypto.SessionKeyLength {
		t.Fatalf("key length = %d, want %d", len(alphaKey), crypto.SessionKeyLength)
	}

	// Bravo joins and receives the identical key.
	var joined api.SessionKeyResponse
	status = postJSON(t, base+"/sessions/"+created.SessionID+"/join", api.JoinSessionRequest{
		DeviceID: "bravo",
	}, &joined)
	if status != http.StatusOK {
		t.Fatalf("join session status = %d, want %d", status, http.StatusOK)
	}
	bravoKey, err := hex.DecodeString(joined.KeyHex)
	if err != nil {
		t.Fatalf("join returned invalid key hex: %v", err)
	}
	if !bytes.Equal(alphaKey, bravoKey) {
		t.Fatal("join delivered a different key than create")
	}

	// The delivered keys interoperate for authenticated encryption.
	message := []byte("advance at dawn")
	aad := []byte("alpha->bravo")
	nonce, ciphertext, err := crypto.AESGCMEncrypt(alphaKey, message, aad)
	if err != nil {
		t.Fatalf("AESGCMEncrypt failed: %v", err)
	}
	plaintext, err := crypto.AESGCMDecrypt(bravoKey, nonce, ciphertext, aad)
	if err != nil {
		t.Fatalf("AESGCMDecrypt failed: %v", err)
	}
	if !bytes.Equal(plaintext, message) {
		t.Errorf("decrypted %q, want %q", plaintext, message)
	}

	// Link health reflects the create and the join.
	var link api.LinkStatusResponse
	if status := getJSON(t, base+"/link", &link); status != http.StatusOK {
		t.Fatalf("link status = %d, want %d", status, http.StatusOK)
	}
	if link.Status != "GREEN" {
		t.Errorf("link.Status = %q, want GREEN", link.Status)
	}
	if link.SessionsCreated != 1 {
		t.Errorf("link.SessionsCreated = %d, want 1", link.SessionsCreated)
	}
	if link.TotalKeysIssued != 2 {
		t.Errorf("link.TotalKeysIssued = %d, want 2", link.TotalKeysIssued)
	}

	// Listings never expose key material.
	var sessions api.ListSessionsResponse
	if status := getJSON(t, base+"/sessions", &sessions); status != http.StatusOK {
		t.Fatalf("list sessions status = %d, want %d", status, http.StatusOK)
	}
	if sessions.Count != 1 {
		t.Fatalf("sessions.Count = %d, want 1", sessions.Count)
	}
	if !sessions.Sessions[0].Joined {
		t.Error("listed session not marked joined")
	}

	// A hybrid session on a second pair.
	var hybrid api.SessionKeyResponse
	status = postJSON(t, base+"/sessions", api.CreateSessionRequest{
		Initiator: "charlie",
		Peer:      "delta",
		Hybrid:    true,
	}, &hybrid)
	if status != http.StatusCreated {
		t.Fatalf("hybrid create status = %d, want %d", status, http.StatusCreated)
	}
	if !hybrid.Hybrid {
		t.Error("hybrid create response not marked hybrid")
	}

	// Reset returns the service to a pristine state.
	if status := postJSON(t, base+"/reset", nil, nil); status != http.StatusOK {
		t.Fatalf("reset status = %d, want %d", status, http.StatusOK)
	}
	if status := getJSON(t, base+"/link", &link); status != http.StatusOK {
		t.Fatalf("link status after reset = %d, want %d", status, http.StatusOK)
	}
	if link.SessionsCreated != 0 || link.TotalKeysIssued != 0 {
		t.Errorf("counters after reset = %d/%d, want 0/0",
			link.SessionsCreated, link.TotalKeysIssued)
	}
}

// TestE2E_RESTAttackDetection drives the eavesdropper controls over HTTP
// and verifies the 403 lockout response carries the measured QBER.
func TestE2E_RESTAttackDetection(t *testing.T) {
	lim := test.TimeOut(30 * time.Second)
	defer lim.Stop()

	loggerFactory := logging.NewDefaultLoggerFactory()

	// 4096 qubits keeps the intercepted QBER well clear of the threshold.
	manager := kms.NewManager(kms.ManagerConfig{
		QubitCount:    4096,
		LoggerFactory: loggerFactory,
	})
	server, err := api.NewServer(api.ServerConfig{
		Addr:          "127.0.0.1:0",
		Manager:       manager,
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Shutdown(nil)

	base := fmt.Sprintf("http://%s/v1", server.Addr())

	var eve api.EavesdropperResponse
	if status := postJSON(t, base+"/eavesdropper/activate", nil, &eve); status != http.StatusOK {
		t.Fatalf("activate status = %d, want %d", status, http.StatusOK)
	}
	if !eve.EavesdropperActive {
		t.Fatal("eavesdropper not active after activate")
	}

	// Key requests are refused while the channel is intercepted.
	var blocked api.ErrorResponse
	status := postJSON(t, base+"/sessions", api.CreateSessionRequest{
		Initiator: "alpha",
		Peer:      "bravo",
	}, &blocked)
	if status != http.StatusForbidden {
		t.Fatalf("intercepted create status = %d, want %d", status, http.StatusForbidden)
	}
	if blocked.QBER <= 0.11 {
		t.Errorf("blocked.QBER = %v, want above threshold", blocked.QBER)
	}
	if blocked.Status != "RED" {
		t.Errorf("blocked.Status = %q, want RED", blocked.Status)
	}

	var link api.LinkStatusResponse
	if status := getJSON(t, base+"/link", &link); status != http.StatusOK {
		t.Fatalf("link status = %d, want %d", status, http.StatusOK)
	}
	if link.AttacksDetected != 1 {
		t.Errorf("link.AttacksDetected = %d, want 1", link.AttacksDetected)
	}
	if link.Status != "RED" {
		t.Errorf("link.Status = %q, want RED", link.Status)
	}
	if !link.EavesdropperActive {
		t.Error("link.EavesdropperActive = false, want true")
	}

	// After the eavesdropper leaves, key delivery resumes.
	if status := postJSON(t, base+"/eavesdropper/deactivate", nil, &eve); status != http.StatusOK {
		t.Fatalf("deactivate status = %d, want %d", status, http.StatusOK)
	}
	var created api.SessionKeyResponse
	status = postJSON(t, base+"/sessions", api.CreateSessionRequest{
		Initiator: "alpha",
		Peer:      "bravo",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create after recovery status = %d, want %d", status, http.StatusCreated)
	}
}
