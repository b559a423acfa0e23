// Package identity resolves the opaque session key supplied by the hosting
// agent framework into a stable agent id. The registry scopes every loop to
// the resolving agent id; loops are never shared across agents.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
)

// LocalAgentID is used when no session key is supplied (e.g. direct CLI use).
const LocalAgentID = "agent-local"

// AgentID derives a stable agent id from a session key. The same key always
// resolves to the same id; different keys collide only with hash collisions.
func AgentID(sessionKey string) string {
	if sessionKey == "" {
		return LocalAgentID
	}
	sum := sha256.Sum256([]byte(sessionKey))
	return "agent-" + hex.EncodeToString(sum[:])[:12]
}
