package testutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Test binaries only log when run with -v.
func init() {
	verbose := false
	for _, arg := range os.Args {
		if arg == "-test.v=true" || arg == "-test.v" {
			verbose = true
		}
	}

	logrus.SetLevel(logrus.TraceLevel)
	if !verbose {
		logrus.StandardLogger().Out = io.Discard
	}
}

func DisableLogging() (reset func()) {
	original := logrus.StandardLogger().Out
	logrus.StandardLogger().Out = io.Discard
	return func() {
		logrus.StandardLogger().Out = original
	}
}
