// Package auth implements challenge-response login: GET /auth issues a
// time-bounded challenge string, POST /auth verifies a signature over it
// and completes the session, and session activity is checked against an
// inactivity timeout.
package auth

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/airgap-it/tz-wrapped-backend/apierr"
	"github.com/airgap-it/tz-wrapped-backend/tezos"
)

// Challenge is the text a wallet signs to prove control of an address, plus
// the bookkeeping needed to enforce its expiry and single use.
type Challenge struct {
	Text      string
	Address   string
	ExpiresAt time.Time
}

// IssueChallenge builds "sign-in-challenge:{domain};{utc};{base58(random10)}",
// valid for ttl.
func IssueChallenge(domain, address string, ttl time.Duration, now time.Time) (Challenge, error) {
	nonce := make([]byte, 10)
	if _, err := rand.Read(nonce); err != nil {
		return Challenge{}, apierr.Wrap(apierr.ErrInternal, "generating challenge nonce: %s", err)
	}
	text := fmt.Sprintf("sign-in-challenge:%s;%s;%s", domain, now.UTC().Format(time.RFC3339), tezos.Base58Encode(nonce))
	return Challenge{Text: text, Address: address, ExpiresAt: now.Add(ttl)}, nil
}

// VerifyChallenge checks signature (base58check edsig/spsig/p2sig) against
// publicKey over Blake2b-32 of the challenge text, and that the challenge
// has not expired as of now.
func VerifyChallenge(challenge Challenge, now time.Time, publicKey tezos.PublicKey, signature tezos.Signature) (bool, error) {
	if now.After(challenge.ExpiresAt) {
		return false, apierr.Wrap(apierr.ErrAuthenticationChallengeExpired, "challenge for %s expired at %s", challenge.Address, challenge.ExpiresAt)
	}
	digest, err := tezos.Blake2b32([]byte(challenge.Text))
	if err != nil {
		return false, apierr.Wrap(apierr.ErrInternal, "hashing challenge: %s", err)
	}
	ok, err := tezos.VerifyDetached(digest, publicKey, signature)
	if err != nil {
		return false, apierr.Wrap(apierr.ErrInvalidSignature, "verifying challenge signature: %s", err)
	}
	return ok, nil
}

// CheckInactivity returns apierr.ErrUnauthorized once now is more than
// timeout past lastTouch.
func CheckInactivity(lastTouch, now time.Time, timeout time.Duration) error {
	if now.Sub(lastTouch) > timeout {
		return apierr.Wrap(apierr.ErrUnauthorized, "session inactive since %s", lastTouch)
	}
	return nil
}
