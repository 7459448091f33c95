package mpv

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform is the operating system mpv runs on
type Platform int

const (
	PlatformLinux Platform = iota
	PlatformWindows
	PlatformWSL
	PlatformMac
)

func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "windows"
	case PlatformWSL:
		return "wsl"
	case PlatformMac:
		return "darwin"
	default:
		return "linux"
	}
}

// IPCType is the transport of mpv's JSON IPC
type IPCType int

const (
	IPCUnixSocket IPCType = iota
	IPCNamedPipe
	IPCTCP
)

// IPCConfig holds IPC connection configuration
type IPCConfig struct {
	Type     IPCType
	Address  string
	IsSocket bool // true for Unix sockets
}

// ipcPrefix names the sockets and pipes this program creates
const ipcPrefix = "archivist-mpv-"

// DetectPlatform detects the current platform
func DetectPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMac
	default:
		if isWSL() {
			return PlatformWSL
		}
		return PlatformLinux
	}
}

// isWSL checks /proc/version for the WSL kernel signature
func isWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}

// GetMPVExecutable returns the mpv executable name for the platform.
// WSL uses the Linux build: gopv cannot reach Windows named pipes from
// inside WSL.
func GetMPVExecutable(platform Platform) string {
	if platform == PlatformWindows {
		return "mpv.exe"
	}
	return "mpv"
}

// FindMPVExecutable looks the mpv executable up in PATH
func FindMPVExecutable(platform Platform) (string, error) {
	executable := GetMPVExecutable(platform)

	path, err := exec.LookPath(executable)
	if err == nil {
		return path, nil
	}
	if platform == PlatformWSL {
		return "", fmt.Errorf("mpv not found in the WSL PATH, install the Linux mpv package: %w", err)
	}
	return "", fmt.Errorf("%s not found in PATH, please install mpv: %w", executable, err)
}

// GetIPCConfig generates a fresh IPC endpoint for the platform
func GetIPCConfig(platform Platform) (*IPCConfig, error) {
	suffix, err := randomSuffix()
	if err != nil {
		return nil, fmt.Errorf("failed to generate IPC name: %w", err)
	}

	switch platform {
	case PlatformLinux, PlatformMac, PlatformWSL:
		return &IPCConfig{
			Type:     IPCUnixSocket,
			Address:  filepath.Join(os.TempDir(), ipcPrefix+suffix+".sock"),
			IsSocket: true,
		}, nil
	case PlatformWindows:
		return &IPCConfig{
			Type:    IPCNamedPipe,
			Address: `\\.\pipe\` + ipcPrefix + suffix,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported platform %v", platform)
	}
}

func randomSuffix() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetMPVIPCArgument returns the mpv command-line argument for IPC
func GetMPVIPCArgument(config *IPCConfig) string {
	return fmt.Sprintf("--input-ipc-server=%s", config.Address)
}

// GetGopvConnectionString returns the address gopv dials
func GetGopvConnectionString(config *IPCConfig) string {
	if config.Type == IPCTCP {
		return "tcp://" + config.Address
	}
	return config.Address
}
