//go:build windows

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

const instancePIDFilename = "instance.pid"

// windowsInstanceLock holds a per-user named mutex. The mutex carries no
// owner, so the holder also writes its PID under the user's temp dir for
// InstanceLockOwner.
type windowsInstanceLock struct {
	handle  windows.Handle
	pidPath string
}

func acquireInstanceLock(appID string) (InstanceLock, error) {
	sid, err := windowsCurrentUserSID()
	if err != nil {
		return nil, err
	}

	namePtr, err := windows.UTF16PtrFromString(windowsInstanceMutexName(appID, sid))
	if err != nil {
		return nil, fmt.Errorf("encode instance mutex name: %w", err)
	}

	handle, err := windows.CreateMutex(nil, false, namePtr)
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		if handle != 0 {
			_ = windows.CloseHandle(handle)
		}

		return nil, ErrInstanceAlreadyRunning
	}
	if err != nil {
		if handle != 0 {
			_ = windows.CloseHandle(handle)
		}

		return nil, fmt.Errorf("create instance mutex: %w", err)
	}

	lock := &windowsInstanceLock{handle: handle}
	if pidPath, err := windowsInstancePIDPath(appID); err == nil {
		// #nosec G306 -- the PID file is informational and per user.
		if os.WriteFile(pidPath, formatInstancePID(os.Getpid()), 0o600) == nil {
			lock.pidPath = pidPath
		}
	}

	return lock, nil
}

func (l *windowsInstanceLock) Release() error {
	if l == nil || l.handle == 0 {
		return nil
	}

	if l.pidPath != "" {
		_ = os.Remove(l.pidPath)
		l.pidPath = ""
	}
	err := windows.CloseHandle(l.handle)
	l.handle = 0
	if err != nil {
		return fmt.Errorf("close instance mutex handle: %w", err)
	}

	return nil
}

func instanceLockOwner(appID string) (int, bool) {
	pidPath, err := windowsInstancePIDPath(appID)
	if err != nil {
		return 0, false
	}
	// #nosec G304 -- pidPath is built from the user's temp dir.
	raw, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, false
	}

	return parseInstancePID(raw)
}

// windowsInstancePIDPath lives under %TEMP%, which Windows keeps per user.
func windowsInstancePIDPath(appID string) (string, error) {
	dir := filepath.Join(os.TempDir(), appID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create instance pid dir: %w", err)
	}

	return filepath.Join(dir, instancePIDFilename), nil
}

func windowsCurrentUserSID() (string, error) {
	token := windows.GetCurrentProcessToken()
	tokenUser, err := token.GetTokenUser()
	if err != nil {
		return "", fmt.Errorf("read current user token: %w", err)
	}

	return tokenUser.User.Sid.String(), nil
}

func windowsInstanceMutexName(appID, userSID string) string {
	return `Local\` + appID + `-single-instance-` + normalizeInstanceLockComponent(userSID, "sid")
}
