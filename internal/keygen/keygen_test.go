package keygen

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateRSAKeyPair(t *testing.T) {
	kp, err := GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair: %v", err)
	}
	if !bytes.Contains(kp.PrivateKey, []byte("RSA PRIVATE KEY")) {
		t.Error("private key not PEM encoded")
	}
	if !bytes.HasPrefix(kp.PublicKey, []byte("ssh-rsa ")) {
		t.Errorf("public key not in authorized_keys format: %q", kp.PublicKey[:20])
	}
}

func TestWriteToDoesNotOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".ssh")

	kp, err := GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair: %v", err)
	}
	if err := kp.WriteTo(dir); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "id_rsa"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "id_rsa"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("private key mode = %o, want 0600", perm)
	}

	// A second keypair written to the same dir must not clobber the first.
	kp2, err := GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair: %v", err)
	}
	if err := kp2.WriteTo(dir); err != nil {
		t.Fatalf("WriteTo (second): %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "id_rsa"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("existing private key was overwritten")
	}
}

func TestRandomSecret(t *testing.T) {
	a, err := RandomSecret()
	if err != nil {
		t.Fatalf("RandomSecret: %v", err)
	}
	b, err := RandomSecret()
	if err != nil {
		t.Fatalf("RandomSecret: %v", err)
	}
	if a == b {
		t.Error("secrets not random")
	}
	if len(a) < 24 {
		t.Errorf("secret too short: %d", len(a))
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("secret not URL-safe: %q", a)
	}
}
