package testutils

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// RunDriver executes a driver command with the given arguments and extra
// environment. The extra env entries override the inherited environment.
func RunDriver(ctx context.Context, env []string, binary string, args []string) (stdout, stderr []byte, err error) {
	var outData, errData bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &outData
	cmd.Stderr = &errData

	// os.Environ() first, custom env on top: in exec.Cmd the last duplicate
	// key wins.
	newEnv := append([]string{}, os.Environ()...)
	newEnv = append(newEnv, env...)
	cmd.Env = newEnv

	err = cmd.Run()
	return outData.Bytes(), errData.Bytes(), err
}

// ExitCode returns the process exit code of a RunDriver error, or 0 when the
// command succeeded.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
