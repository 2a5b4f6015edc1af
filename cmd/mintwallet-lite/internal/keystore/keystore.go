// Package keystore is the in-memory key storage for mintwallet-lite.
// It holds development keys only; production keys never touch this
// process.
package keystore

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// Keystore is an in-memory key store. Thread-safe for concurrent
// access; accessors return copies, so mutating a returned Key never
// touches stored state.
type Keystore struct {
	keys map[string]*Key // address -> key
	mu   sync.RWMutex
}

// Key is one signing key pair.
type Key struct {
	ID         string
	Name       string
	Address    string // 0x... Ethereum address
	PublicKey  string // hex-encoded compressed public key
	PrivateKey *ecdsa.PrivateKey
	CreatedAt  time.Time
}

// New creates an empty keystore.
func New() *Keystore {
	return &Keystore{
		keys: make(map[string]*Key),
	}
}

// Add inserts a key. Adding a second key for the same address fails.
func (k *Keystore) Add(key *Key) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.keys[key.Address]; exists {
		return fmt.Errorf("key with address %s already exists", key.Address)
	}

	k.keys[key.Address] = copyKey(key)
	return nil
}

// Generate creates, stores, and returns a fresh named key.
func (k *Keystore) Generate(name string) (*Key, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	key := newKey(name, priv)
	if err := k.Add(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Get retrieves a key by address.
func (k *Keystore) Get(address string) (*Key, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	key, exists := k.keys[address]
	if !exists {
		return nil, fmt.Errorf("key with address %s not found", address)
	}
	return copyKey(key), nil
}

// GetByID retrieves a key by ID.
func (k *Keystore) GetByID(id string) (*Key, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	for _, key := range k.keys {
		if key.ID == id {
			return copyKey(key), nil
		}
	}
	return nil, fmt.Errorf("key with ID %s not found", id)
}

// GetByPublicKey retrieves a key by its hex public key.
func (k *Keystore) GetByPublicKey(publicKey string) (*Key, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	for _, key := range k.keys {
		if key.PublicKey == publicKey {
			return copyKey(key), nil
		}
	}
	return nil, fmt.Errorf("key with public key %s not found", publicKey)
}

// List returns all keys sorted by name.
func (k *Keystore) List() []*Key {
	k.mu.RLock()
	defer k.mu.RUnlock()

	keys := make([]*Key, 0, len(k.keys))
	for _, key := range k.keys {
		keys = append(keys, copyKey(key))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys
}

// Delete removes a key by address.
func (k *Keystore) Delete(address string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.keys[address]; !exists {
		return fmt.Errorf("key with address %s not found", address)
	}

	delete(k.keys, address)
	return nil
}

// Count returns the number of stored keys.
func (k *Keystore) Count() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}

// copyKey copies the metadata fields so callers cannot mutate stored
// state. The private key pointer is shared; key material is immutable.
func copyKey(key *Key) *Key {
	if key == nil {
		return nil
	}
	cp := *key
	return &cp
}

// newKey derives the stored representation of a private key.
func newKey(name string, priv *ecdsa.PrivateKey) *Key {
	return &Key{
		ID:         uuid.NewString(),
		Name:       name,
		Address:    crypto.PubkeyToAddress(priv.PublicKey).Hex(),
		PublicKey:  hex.EncodeToString(crypto.CompressPubkey(&priv.PublicKey)),
		PrivateKey: priv,
		CreatedAt:  time.Now().UTC(),
	}
}
