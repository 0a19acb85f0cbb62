package webhook

import (
	"encoding/base64"
	"fmt"
)

// Signer stamps outgoing notifications with an X-Signature value.
//
// The mock signer below is NOT a security mechanism: it is a reversible
// encoding so tests can eyeball what was signed. A production gateway signs
// the raw request body with HMAC-SHA256; swapping that in only requires a new
// Signer implementation, the dispatcher call sites do not change.
type Signer interface {
	Sign(dataID string, notificationID int64) string
}

type MockSigner struct{}

func (MockSigner) Sign(dataID string, notificationID int64) string {
	raw := fmt.Sprintf("%s:%d", dataID, notificationID)
	return "mock-signature-" + base64.StdEncoding.EncodeToString([]byte(raw))
}
