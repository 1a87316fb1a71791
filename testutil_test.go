package simnet

// testLogger discards everything; used by tests that don't assert on log
// output, mirroring the teacher's internal.NullLogger without introducing
// an import cycle from this in-package test file.
type testLogger struct{}

func (testLogger) Debugf(format string, v ...any) {}
func (testLogger) Debug(message string)           {}
func (testLogger) Infof(format string, v ...any)  {}
func (testLogger) Info(message string)            {}
func (testLogger) Warnf(format string, v ...any)  {}
func (testLogger) Warn(message string)            {}

var _ Logger = testLogger{}
