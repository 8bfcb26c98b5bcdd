package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	HeaderTimestamp = "X-Hsdest-Timestamp"
	HeaderSignature = "X-Hsdest-Signature"

	signaturePrefix = "v1="
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidTimestamp = errors.New("invalid signature timestamp")
	ErrExpired          = errors.New("signature timestamp outside tolerance")
	ErrMismatch         = errors.New("signature mismatch")
)

// Sign signs payload at the current time.
func Sign(secret string, payload []byte) (signature string, timestamp int64) {
	timestamp = time.Now().Unix()
	return SignAt(secret, payload, timestamp), timestamp
}

// SignAt returns the "v1=<hex>" signature of payload at timestamp.
func SignAt(secret string, payload []byte, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature against the raw header values. A zero tolerance
// disables the timestamp window check.
func Verify(secret string, payload []byte, timestampHeader, signature string, tolerance time.Duration, now time.Time) error {
	if timestampHeader == "" || signature == "" {
		return ErrMissingSignature
	}
	ts, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimestamp, timestampHeader)
	}
	if tolerance > 0 {
		skew := now.Sub(time.Unix(ts, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > tolerance {
			return ErrExpired
		}
	}

	expected := SignAt(secret, payload, ts)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrMismatch
	}
	return nil
}
