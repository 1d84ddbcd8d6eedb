// Package auth tracks the current session and fires interception
// points and events around login and logout. onLogin handlers can veto
// a login by stopping the chain; onLogout handlers observe the session
// on its way out.
package auth
