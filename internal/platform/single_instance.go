package platform

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInstanceAlreadyRunning indicates another process already owns the app instance lock.
var ErrInstanceAlreadyRunning = errors.New("instance already running")

// ErrInstanceLockUnsupported indicates the current platform has no lock backend implementation.
var ErrInstanceLockUnsupported = errors.New("instance lock unsupported")

// InstanceLock represents an acquired single-instance lock.
type InstanceLock interface {
	Release() error
}

// AcquireInstanceLock takes the per-user lock for appID. The returned error
// is ErrInstanceAlreadyRunning when another process holds it.
func AcquireInstanceLock(appID string) (InstanceLock, error) {
	return acquireInstanceLock(normalizeInstanceLockComponent(appID, "app"))
}

// InstanceLockOwner returns the PID recorded by the current lock holder, if
// the platform records one.
func InstanceLockOwner(appID string) (int, bool) {
	return instanceLockOwner(normalizeInstanceLockComponent(appID, "app"))
}

// parseInstancePID reads the PID a lock holder recorded.
func parseInstancePID(raw []byte) (int, bool) {
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

func formatInstancePID(pid int) []byte {
	return []byte(strconv.Itoa(pid) + "\n")
}

func normalizeInstanceLockComponent(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	normalized := strings.Trim(b.String(), "_-.")
	if normalized == "" {
		return fallback
	}

	return normalized
}
