package events

// Event type codes published to the NATS EVENTS stream.
const (
	UserLogin           = "USER_LOGIN"
	DocumentIndexed     = "DOCUMENT_INDEXED"
	DocumentIndexFailed = "DOCUMENT_INDEX_FAILED"
	SessionDeleted      = "SESSION_DELETED"
)
