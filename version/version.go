// Package version holds the batch engine's build identity, used for the
// CLI's -version flag.
package version

// AppName holds the name of the application.
var AppName = "batchhttp"

// Version holds the current version of the application.
var Version = "0.1.0"

// GetAppName returns the name of the application.
func GetAppName() string {
	return AppName
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return Version
}
