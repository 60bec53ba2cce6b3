package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Notifier verifies IPN callbacks. The gateway signs the raw body with
// HMAC-SHA256 using the store password; a callback without a valid
// signature never reaches the reconciliation path.
type Notifier struct{ secret []byte }

func NewNotifier(storePass string) *Notifier {
	return &Notifier{secret: []byte(storePass)}
}

func (n *Notifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, n.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (n *Notifier) Verify(body []byte, signature string) bool {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, n.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}
