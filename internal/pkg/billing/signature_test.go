package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "top-secret"
	orderID := "order_abc123"
	paymentID := "pay_def456"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	validSig := hex.EncodeToString(mac.Sum(nil))

	if !VerifyPaymentSignature(orderID, paymentID, validSig, secret) {
		t.Fatalf("expected signature to validate")
	}
	if ComputePaymentSignature(orderID, paymentID, secret) != validSig {
		t.Fatalf("ComputePaymentSignature disagrees with manual HMAC")
	}
	if VerifyPaymentSignature(orderID, paymentID, "deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
	if VerifyPaymentSignature(orderID, paymentID, validSig, "other-secret") {
		t.Fatalf("expected signature under wrong secret to fail")
	}
	if VerifyPaymentSignature(orderID, paymentID, "", secret) {
		t.Fatalf("expected empty signature to fail")
	}
	if VerifyPaymentSignature(orderID, paymentID, validSig, "") {
		t.Fatalf("expected empty secret to fail")
	}
	if VerifyPaymentSignature(orderID, paymentID, "not-hex!", secret) {
		t.Fatalf("expected non-hex signature to fail")
	}
}

func TestVerifyPaymentSignatureBitFlip(t *testing.T) {
	secret := "top-secret"
	orderID := "order_abc123"
	paymentID := "pay_def456"
	valid := ComputePaymentSignature(orderID, paymentID, secret)

	raw, err := hex.DecodeString(valid)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	// Flip a single bit in every byte position; all must reject.
	for i := range raw {
		tampered := append([]byte(nil), raw...)
		tampered[i] ^= 0x01
		if VerifyPaymentSignature(orderID, paymentID, hex.EncodeToString(tampered), secret) {
			t.Fatalf("expected bit-flipped signature at byte %d to fail", i)
		}
	}
}

func TestTaxFor(t *testing.T) {
	tests := []struct {
		amount int
		want   int
	}{
		{amount: 499, want: 90},  // round(89.82)
		{amount: 999, want: 180}, // round(179.82)
		{amount: 0, want: 0},
		{amount: 100, want: 18},
		{amount: 3, want: 1}, // round(0.54)
	}
	for _, tt := range tests {
		if got := taxFor(tt.amount); got != tt.want {
			t.Fatalf("taxFor(%d) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}
