package errors

// ErrorKind classifies where in the sync pipeline a failure happened so the
// orchestrator and the entrypoint can decide whether it is fatal.
type ErrorKind string

const (
	// Fatal to the whole run, surfaced by the entrypoint before any page is touched.
	KindConfig       ErrorKind = "CONFIG_ERROR"
	KindConnectivity ErrorKind = "CONNECTIVITY_ERROR"
	KindRunLocked    ErrorKind = "RUN_LOCKED"

	// Scoped to a single page, caught at the orchestrator's page boundary.
	KindRefresh     ErrorKind = "REFRESH_ERROR"
	KindFetch       ErrorKind = "FETCH_ERROR"
	KindPersistence ErrorKind = "PERSISTENCE_ERROR"

	KindInternal ErrorKind = "INTERNAL_ERROR"
)

// Fatal reports whether this kind aborts the whole run rather than one page.
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindConfig, KindConnectivity, KindRunLocked:
		return true
	}
	return false
}
