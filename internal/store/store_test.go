package store

import (
	"testing"
)

// Compile-time checks that the interface is importable and usable.
func TestBridgeStoreInterfaceExists(t *testing.T) {
	// This test simply validates that the BridgeStore interface compiles
	// and the sentinel errors are accessible.
	_ = ErrConcurrentModification
	_ = ErrOrderNotFound
	_ = ErrRateUnavailable
	_ = CreateOrderParams{}

	// Ensure the interface is non-nil type.
	var _ BridgeStore
}
