package env

import "os"

func IsGithubAction() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// IsOutputLockDisabled reports whether VANILLA_LOCK_DISABLED asks the CLI to
// skip locking output files, e.g. on filesystems without flock support.
func IsOutputLockDisabled() bool {
	return os.Getenv("VANILLA_LOCK_DISABLED") == "true"
}
