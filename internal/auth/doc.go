// Package auth implements the single-admin session authenticator: statically configured
// credentials, a signed expiring admin token and the two-state session it backs.
package auth
