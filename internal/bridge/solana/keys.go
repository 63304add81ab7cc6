package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"token-bridge-go/internal/bridge"

	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"
)

// deriveAccount turns a mnemonic into an ed25519 keypair. The BIP-39 seed
// is hashed to the 32-byte curve seed, so the derivation is deterministic
// for a given phrase.
func deriveAccount(seedPhrase string) (*bridge.Account, error) {
	if !bip39.IsMnemonicValid(seedPhrase) {
		return nil, fmt.Errorf("%w: invalid mnemonic", bridge.ErrKeyDerivation)
	}

	seed := bip39.NewSeed(seedPhrase, "")
	curveSeed := sha256.Sum256(seed)
	privateKey := ed25519.NewKeyFromSeed(curveSeed[:])
	publicKey := privateKey.Public().(ed25519.PublicKey)

	return &bridge.Account{
		PublicKey:  base58.Encode(publicKey),
		PrivateKey: hex.EncodeToString(privateKey),
		Address:    base58.Encode(publicKey),
		SeedPhrase: seedPhrase,
	}, nil
}

func newAccount() (*bridge.Account, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bridge.ErrKeyDerivation, err.Error())
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bridge.ErrKeyDerivation, err.Error())
	}
	return deriveAccount(mnemonic)
}

func decodePrivateKey(privateKey string) (ed25519.PrivateKey, error) {
	raw, err := hex.DecodeString(privateKey)
	if err != nil || len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: malformed signer key", bridge.ErrKeyDerivation)
	}
	return ed25519.PrivateKey(raw), nil
}

func decodeAddress(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: %s", bridge.ErrInvalidAddress, address)
	}
	return raw, nil
}
