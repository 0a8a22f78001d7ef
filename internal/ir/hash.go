package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content fingerprints. The version suffix allows
// the encoding to change without colliding with old fingerprints.
const (
	DomainDAG  = "relalg/dag/v1"
	DomainNode = "relalg/node/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content hash of a DAG. It depends only on the
// plan structure, never on BuildID, so rebuilding the same plan yields
// the same fingerprint.
func Fingerprint(d *DAG) (string, error) {
	canonical, err := MarshalCanonical(EncodeDAG(d))
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDAG, canonical), nil
}

// NodeFingerprint returns the content hash of a single node.
func NodeFingerprint(n Node) (string, error) {
	canonical, err := MarshalCanonical(EncodeNode(n))
	if err != nil {
		return "", fmt.Errorf("NodeFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNode, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests.
func MustFingerprint(d *DAG) string {
	fp, err := Fingerprint(d)
	if err != nil {
		panic(err)
	}
	return fp
}
