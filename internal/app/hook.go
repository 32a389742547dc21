package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// InstallHook installs a prepare-commit-msg hook that runs autocommit in
// hook mode, writing the accepted message into git's message file.
func InstallHook() error {
	gitDir := ".git"
	if _, err := os.Stat(gitDir); os.IsNotExist(err) {
		return fmt.Errorf("current directory is not a git repository root (no .git found)")
	}

	hooksDir := filepath.Join(gitDir, "hooks")
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return fmt.Errorf("create hooks dir: %w", err)
	}

	hookPath := filepath.Join(hooksDir, "prepare-commit-msg")
	if _, err := os.Stat(hookPath); err == nil {
		return fmt.Errorf("hook %s already exists. Please remove it first", hookPath)
	}

	exe, err := os.Executable()
	if err != nil {
		exe = "autocommit"
	} else {
		exe, _ = filepath.Abs(exe)
	}

	script := fmt.Sprintf(`#!/bin/sh
# autocommit hook
# Generates a commit message when none was given.

COMMIT_MSG_FILE=$1
COMMIT_SOURCE=$2

# Skip when a message was provided (-m) or during merges/amends.
if [ "$COMMIT_SOURCE" = "message" ] || [ "$COMMIT_SOURCE" = "merge" ]; then
  exit 0
fi

if [ -t 0 ]; then
    exec < /dev/tty
fi

"%s" suggest --hook-file "$COMMIT_MSG_FILE" < /dev/tty > /dev/tty
`, exe)

	if err := os.WriteFile(hookPath, []byte(script), 0755); err != nil {
		return fmt.Errorf("write hook file: %w", err)
	}

	fmt.Printf("Hook installed to %s\n", hookPath)
	return nil
}
