package encryption

import (
	"fmt"

	"keksly-go/internal/config"
	"keksly-go/internal/keksly"
)

// NewSealerFromConfig creates a Sealer based on the configuration type.
// For "age" the stored private key is unlocked with passphrase.
func NewSealerFromConfig(cfg config.EncryptionConfig, passphrase string) (keksly.Sealer, error) {
	switch cfg.Type {
	case "age", "":
		kp := NewAgeKeyPair(cfg)
		if !kp.IsConfigured() {
			return nil, fmt.Errorf("age keys not found: run `keksly keygen` first")
		}
		return kp.Unlock(passphrase)
	case "test":
		return NewTestSealer(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
