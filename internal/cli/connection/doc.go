// Package connection talks to a goldtodo server over HTTP.
//
// HTTPClient issues the requests; ParseResponse unwraps the standard
// response envelope ({code, message, request_id, data}) and turns error
// envelopes into *APIError values carrying the server's error code and
// request ID.
package connection
