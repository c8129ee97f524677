package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"stride-core/internal/artifact"
	"stride-core/internal/profile"
)

// Fingerprint identifies one logical generation request. Two requests with
// the same user, kind, salient parameters and personalization weights must
// produce the same fingerprint; any input that changes the expected output
// must change it.
type Fingerprint struct {
	UserID string
	Kind   artifact.Kind
	Hash   string
}

// String renders the final key used in Redis/map.
// af:<USER_ID>:<KIND>:<HASH_HEX>
func (f Fingerprint) String() string {
	return "af:" + f.UserID + ":" + string(f.Kind) + ":" + f.Hash
}

// BuildFingerprint hashes the salient request parameters and the normalized
// motivation weights into a stable key. encoding/json writes map keys in
// sorted order, so the same inputs always serialize identically; weights are
// already rounded to three decimals, which keeps the key stable across
// re-normalization.
func BuildFingerprint(userID string, kind artifact.Kind, params map[string]any, weights profile.Weights) (Fingerprint, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return Fingerprint{}, err
	}
	bias, err := json.Marshal(weights)
	if err != nil {
		return Fingerprint{}, err
	}

	normalized := "kind:" + string(kind) + "|params:" + string(body) + "|weights:" + string(bias)
	sum := sha256.Sum256([]byte(normalized))

	return Fingerprint{
		UserID: strings.TrimSpace(userID),
		Kind:   kind,
		Hash:   hex.EncodeToString(sum[:]),
	}, nil
}
