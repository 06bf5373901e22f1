package thread

import "github.com/pion/logging"

// LogResult logs the outcome of a stack call as "<what>: <result>" and returns
// err unchanged. It never escalates: callers decide whether to branch on the
// result, and the node keeps running either way.
//
// Success and the benign Already condition are logged at info, everything else
// at warn.
func LogResult(log logging.LeveledLogger, what string, err error) error {
	if log == nil {
		return err
	}
	switch {
	case err == nil, IsAlready(err):
		log.Infof("%s: %s", what, ErrorString(err))
	default:
		log.Warnf("%s: %s", what, ErrorString(err))
	}
	return err
}
