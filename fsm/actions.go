package fsm

import "log"

// applyAction runs the effect named by a, once the machine's state has
// already been updated and persisted-to-be. Unrecognized actions (a
// stale tag from an older device_settings.json) are logged and ignored.
func applyAction(a Action, m *Machine) {
	switch a {
	case ActionNone:
		return
	case ActionLog:
		log.Printf("fsm: action log: state=%s, retry_count=%d", m.Current(), m.RetryCount())
	case ActionClearRetryCount:
		m.retryCount.Store(0)
	case ActionResetSession:
		m.retryCount.Store(0)
	case ActionNotifyDisconnect:
		log.Printf("fsm: disconnected cleanly")
	default:
		log.Printf("fsm: unrecognized action %q ignored", a)
	}
}

// evalGuard evaluates the predicate named by g against m's current
// counters. An unrecognized guard string evaluates false.
func evalGuard(g Guard, m *Machine) bool {
	switch g {
	case GuardNone:
		return true
	case GuardRetryCountLtMax:
		return m.retryCount.Load() < m.maxRetries
	case GuardRetryCountAtZero:
		return m.retryCount.Load() == 0
	default:
		return false
	}
}
