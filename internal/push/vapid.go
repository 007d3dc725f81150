// Package push delivers notifications over the Web Push protocol and owns
// the VAPID keypair that authenticates this service to push gateways.
package push

import (
	"encoding/json"
	"fmt"
	"os"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// VAPIDKeys is the persisted keypair. The file layout matches what the old
// Node push server wrote, so existing deployments keep their keys — and
// with them every existing subscription.
type VAPIDKeys struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// LoadOrGenerateKeys reads the keypair at path, generating and persisting a
// fresh one when the file does not exist. Returns created=true on a fresh
// generation; rotating keys invalidates all current subscriptions, so
// callers log it loudly.
func LoadOrGenerateKeys(path string) (keys VAPIDKeys, created bool, err error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &keys); err != nil {
			return VAPIDKeys{}, false, fmt.Errorf("parse VAPID keys: %w", err)
		}
		if keys.PublicKey == "" || keys.PrivateKey == "" {
			return VAPIDKeys{}, false, fmt.Errorf("VAPID key file %s is incomplete", path)
		}
		return keys, false, nil
	}
	if !os.IsNotExist(err) {
		return VAPIDKeys{}, false, fmt.Errorf("read VAPID keys: %w", err)
	}

	private, public, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return VAPIDKeys{}, false, fmt.Errorf("generate VAPID keys: %w", err)
	}
	keys = VAPIDKeys{PublicKey: public, PrivateKey: private}

	out, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return VAPIDKeys{}, false, fmt.Errorf("marshal VAPID keys: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return VAPIDKeys{}, false, fmt.Errorf("write VAPID keys: %w", err)
	}
	return keys, true, nil
}

// Truncated returns a shortened public key for status output and logs.
func (k VAPIDKeys) Truncated() string {
	if len(k.PublicKey) <= 20 {
		return k.PublicKey
	}
	return k.PublicKey[:20] + "..."
}
