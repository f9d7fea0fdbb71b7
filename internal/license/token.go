// Package license implements the EA license check: a store lookup plus an
// HMAC-based, hour-bucketed 8-digit token the client echoes back to prove it
// passed validation within the current hour.
package license

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// hourBucketSeconds is the token rotation period.
const hourBucketSeconds = 3600

// TokenForHour derives the 8-digit token for one license binding and hour
// bucket: the first four bytes of HMAC-SHA256(secret,
// "id|account|server|bucket") interpreted big-endian, modulo 1e8,
// zero-padded. Deterministic, so client and server agree without state.
func TokenForHour(secret, licenseID string, account int64, server string, hourBucket int64) string {
	payload := fmt.Sprintf("%s|%d|%s|%d", licenseID, account, server, hourBucket)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	sum := mac.Sum(nil)

	num := binary.BigEndian.Uint32(sum[:4]) % 100000000
	return fmt.Sprintf("%08d", num)
}

// HourBucket returns the rotation bucket for an epoch timestamp.
func HourBucket(epoch int64) int64 {
	return epoch / hourBucketSeconds
}

// BucketEnd returns the epoch at which tokens for the given bucket expire.
func BucketEnd(bucket int64) int64 {
	return (bucket + 1) * hourBucketSeconds
}
