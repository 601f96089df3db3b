// Package platform provides OS-aware helpers for paths, restarts, and services.
// All code that needs to behave differently per OS must use this package.
// Never use runtime.GOOS checks scattered across the codebase — put them here.
package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// GOOS returns the current operating system.
// Values: "linux", "darwin", "windows"
func GOOS() string {
	return runtime.GOOS
}

// IsWindows returns true when running on Windows.
func IsWindows() bool { return runtime.GOOS == "windows" }

// IsMac returns true when running on macOS.
func IsMac() bool { return runtime.GOOS == "darwin" }

// IsLinux returns true when running on Linux.
func IsLinux() bool { return runtime.GOOS == "linux" }

// DefaultWorkDir returns the OS-appropriate data directory for decisiond.
//
//	Linux:   ~/.local/share/decisiond
//	macOS:   ~/Library/Application Support/Decisiond
//	Windows: %APPDATA%\Decisiond
//
// If WORK_DIR env var is set, that takes priority (used in Docker).
func DefaultWorkDir() string {
	if env := os.Getenv("WORK_DIR"); env != "" {
		return env
	}
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Decisiond")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Decisiond")
	default: // linux
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "decisiond")
	}
}

// DataPath returns a path inside the work directory.
// Uses filepath.Join so it is correct on all platforms.
//
// Example: DataPath("prompts") → ~/.local/share/decisiond/prompts
func DataPath(parts ...string) string {
	base := DefaultWorkDir()
	return filepath.Join(append([]string{base}, parts...)...)
}

// EnsureDir creates a directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// Restart re-executes the current binary with the same arguments.
// It starts the new process then exits the current one.
// On all platforms this results in a clean restart with a fresh process.
func Restart() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("platform.Restart: executable: %w", err)
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("platform.Restart: start: %w", err)
	}
	os.Exit(0)
	return nil // unreachable
}

// ServiceConfig holds OS service configuration.
type ServiceConfig struct {
	Name        string
	DisplayName string
	Description string
	ExecPath    string
	WorkDir     string
}

// ServiceManager returns the correct service manager name for the current OS.
//
//	Linux:   "systemd"
//	macOS:   "launchd"
//	Windows: "windows-service"
func ServiceManager() string {
	switch runtime.GOOS {
	case "darwin":
		return "launchd"
	case "windows":
		return "windows-service"
	default:
		return "systemd"
	}
}

// InstallServiceFile generates the service definition file for the current OS.
// Returns the file path and content to write.
func InstallServiceFile(cfg ServiceConfig) (path string, content string) {
	switch runtime.GOOS {
	case "linux":
		path = filepath.Join("/etc", "systemd", "system", cfg.Name+".service")
		content = systemdUnit(cfg)
	case "darwin":
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, "Library", "LaunchAgents", "com."+cfg.Name+".plist")
		content = launchdPlist(cfg)
	case "windows":
		// Windows services are registered via sc.exe, not a file
		path = ""
		content = ""
	}
	return
}

func systemdUnit(cfg ServiceConfig) string {
	return `[Unit]
Description=` + cfg.Description + `
After=network.target

[Service]
Type=simple
ExecStart=` + cfg.ExecPath + `
WorkingDirectory=` + cfg.WorkDir + `
Restart=always
RestartSec=5

[Install]
WantedBy=multi-user.target
`
}

func launchdPlist(cfg ServiceConfig) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.` + cfg.Name + `</string>
    <key>ProgramArguments</key>
    <array>
        <string>` + cfg.ExecPath + `</string>
    </array>
    <key>WorkingDirectory</key>
    <string>` + cfg.WorkDir + `</string>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
</dict>
</plist>
`
}
