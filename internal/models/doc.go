// Package models defines the core domain records for Billsplit.
//
// # Records
//
//   - User: registered account, identified by a numeric id
//   - Group: a set of members who share expenses
//   - GroupMember / PendingMember: registered and invited-but-unregistered
//     membership in a group
//   - Expense: one purchase event with per-participant shares
//   - Settlement: a recorded real-world payment between two members
//
// # Design Principles
//
// 1. **Soft deletion**: expenses are never hard-deleted; DeletedAt marks them
// as excluded from computation while keeping them for audit display.
//
// 2. **Typed pending data**: an expense's pending payer and pending shares are
// first-class fields. The legacy format that encoded them inside the
// description text is handled only by the engine's normalizer, as a
// migration path for old rows.
//
// 3. **Avoid circular references**: records reference each other by id, not
// by pointer.
package models
