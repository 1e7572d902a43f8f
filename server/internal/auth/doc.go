// Package auth provides HTTP middleware for the calculation API.
//
// APIKey(mode, header, key, readOnlyOpen) validates the API key sent in the
// named header. When mode != "apikey" or key == "", all requests pass through
// (useful for local development with auth disabled).
//
// User copies the X-User header into the request context; stored records
// carry it as the operator name.
package auth
