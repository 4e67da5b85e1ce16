// Package domain contains shared domain types used across entity sub-packages.
// Entity-specific types live in sub-packages (domain/board, domain/user,
// domain/change); the pure rules that act on them live in domain/ordering and
// domain/access. This root package holds the sentinel errors and typed errors
// every layer classifies with errors.Is and errors.As.
package domain
