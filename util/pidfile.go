package util

import (
	"fmt"
	"os"
	"strconv"
	"time"

	ps "github.com/mitchellh/go-ps"
)

// IsRunningInOtherProcess returns true if the pid file at pathToFile
// contains a live pid belonging to another process. Stale pid files
// left by crashed processes don't count.
func IsRunningInOtherProcess(pathToFile string) bool {
	pid := ReadPidFile(pathToFile)
	if pid == 0 || pid == os.Getpid() {
		return false
	}
	return ProcessIsRunning(pid)
}

// ReadPidFile returns the pid from the specified file, or zero if the
// file is missing or unparsable.
func ReadPidFile(pathToFile string) int {
	if data, err := os.ReadFile(pathToFile); err == nil {
		if pid, err := strconv.Atoi(string(data)); err == nil {
			return pid
		}
	}
	return 0
}

// WritePidFile writes this process' pid to the specified file.
func WritePidFile(pathToFile string) error {
	pidStr := strconv.Itoa(os.Getpid())
	return os.WriteFile(pathToFile, []byte(pidStr), 0664)
}

// DeletePidFile deletes the specified pid file if it belongs to this
// process or to no live process.
func DeletePidFile(pathToFile string) error {
	if IsRunningInOtherProcess(pathToFile) {
		return fmt.Errorf("Pid file %s belongs to another running process", pathToFile)
	}
	return os.Remove(pathToFile)
}

// AgeOfPidFile returns the duration of time that has passed since
// the pid file was last modified.
func AgeOfPidFile(pathToFile string) (time.Duration, error) {
	fileStat, err := os.Stat(pathToFile)
	if err != nil {
		return time.Duration(0), err
	}
	return time.Since(fileStat.ModTime()), nil
}

// ProcessIsRunning returns true if the process with pid is running.
// This uses go-ps internally because golang's os.FindProcess always
// returns a process on *nix, even when no process with that pid is
// running.
func ProcessIsRunning(pid int) bool {
	proc, _ := ps.FindProcess(pid)
	return proc != nil
}
