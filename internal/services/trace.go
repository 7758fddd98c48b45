package services

import (
	"crypto/rand"
	"encoding/hex"
)

// NewTraceID returns an 8-hex-character token identifying one pipeline run.
// A fresh one is issued on submit and rotated on retry and regeneration so
// log lines from different runs of the same job stay distinguishable.
func NewTraceID() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(buf[:])
}
