package handlers

// SessionCookieName is the browser cookie carrying the session ID
const SessionCookieName = "session_id"

// CSRFHeaderName carries the CSRF token on mutating requests
const CSRFHeaderName = "X-CSRF-Token"
