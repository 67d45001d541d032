package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
)

// verifyWebhookSignature checks the provider signature header against the
// shared secret. Header format: "t=<unix>,v1=<hex hmac-sha256>", where the
// MAC covers "<t>.<raw body>". Fails closed: any malformed header, MAC
// mismatch or timestamp outside tolerance is ErrInvalidSignature, checked
// before the body is parsed at all.
func verifyWebhookSignature(secret string, header string, body []byte, tolerance time.Duration, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("webhook secret not configured: %w", pkgerr.ErrInvalidSignature)
	}

	var tsRaw, sigRaw string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			tsRaw = kv[1]
		case "v1":
			sigRaw = kv[1]
		}
	}
	if tsRaw == "" || sigRaw == "" {
		return fmt.Errorf("missing signature components: %w", pkgerr.ErrInvalidSignature)
	}

	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return fmt.Errorf("bad signature timestamp: %w", pkgerr.ErrInvalidSignature)
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return fmt.Errorf("signature timestamp outside tolerance: %w", pkgerr.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(tsRaw))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	provided, err := hex.DecodeString(sigRaw)
	if err != nil {
		return fmt.Errorf("bad signature encoding: %w", pkgerr.ErrInvalidSignature)
	}
	expectedRaw, _ := hex.DecodeString(expected)
	if !hmac.Equal(provided, expectedRaw) {
		return fmt.Errorf("signature mismatch: %w", pkgerr.ErrInvalidSignature)
	}
	return nil
}

// signWebhookPayload produces a header verifiable by
// verifyWebhookSignature. Used by tests and local tooling.
func signWebhookPayload(secret string, body []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
