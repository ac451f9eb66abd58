// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - Group: a shared context that members attach expenses to
//   - Member: a (group, user) pairing with a Role
//   - Invite: a pending, accepted or expired invitation to a group
//   - Expense: an amount paid by one user, optionally shared with a group
//   - Split: one non-payer's obligation derived from an expense
//   - User: a registered account (identity collaborator)
//
// # Design Principles
//
//  1. Avoid circular references: relationships are ID strings, not pointers.
//  2. Money is decimal.Decimal in memory and integer cents in storage.
//  3. Timestamps are time.Time in memory and unix seconds in storage.
package models
