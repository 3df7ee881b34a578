package instance

import "os"

// GetID identifies the running process in logs and lock values.
func GetID() string {
	for _, key := range []string{"HOMESVC_INSTANCE_ID", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
