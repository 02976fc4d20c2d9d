package checkout

import (
	"crypto/rand"
	"fmt"
)

const (
	txCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	txCodeLength  = 8

	// StoreCodePrefix marks orders placed online for store pickup.
	StoreCodePrefix = "STORE-"
	// POSCodePrefix marks counter sales rung up by staff.
	POSCodePrefix = "POS-"
)

// NewTransactionCode builds a customer-facing order reference such as
// STORE-7K2M9QDX. The random part comes from crypto/rand.
func NewTransactionCode(prefix string) (string, error) {
	buf := make([]byte, txCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating transaction code: %w", err)
	}
	out := make([]byte, txCodeLength)
	for i, b := range buf {
		out[i] = txCodeCharset[int(b)%len(txCodeCharset)]
	}
	return prefix + string(out), nil
}
