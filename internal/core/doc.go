// Package core provides the bulk import and staging pipeline for inventory
// products.
//
// This package holds all domain logic independent of any UI or transport
// layer. The web server, the CLI and tests all drive it the same way.
//
// # Pipeline
//
// A file moves through four stages:
//
//  1. [TabularReader] turns file bytes into a [RawTable] of string cells
//  2. [Mapper] matches cells to the product schema and coerces them into
//     typed [Fields], reporting problems as [ValidationIssue] values
//  3. [Store] keeps the mapped rows as [StagedRecord] values that can be
//     corrected one field at a time
//  4. [Controller] sends every record without a blocking issue to an
//     [InventoryClient] in one batch and reconciles the per-record result
//
// Row problems are data, never errors. A record with a blocking issue stays
// staged and is reported as skipped on submit until it is corrected.
//
// # Sessions
//
// [Service] keeps one [Store] per import session, identified by a uuid:
//
//	summary, err := svc.StartImport(ctx, core.ImportRequest{
//	    FileName:  "products.csv",
//	    Content:   data,
//	    HasHeader: true,
//	})
//	rec, err := svc.EditField(summary.ID, 3, core.FieldPrice, "19.99")
//	result, err := svc.Submit(ctx, summary.ID)
//
// Idle sessions are dropped by [Service.StartJanitor].
//
// # Record Lifecycle
//
//	staged -> submitting -> committed (removed from the batch)
//	                     -> failed    (stays, editable, resubmittable)
//	                     -> staged    (inventory unavailable)
//
// # Error Handling
//
// Operations return sentinel errors wrapped with context; test them with
// errors.Is. [MapError] converts any error to a user message with a support
// code:
//
//   - IMP001-IMP002: File errors (malformed, too large)
//   - STG001-STG004: Staging errors (unknown record or field, locked)
//   - SUB001-SUB002: Submission errors (inventory unavailable)
//   - SES001: Session errors (not found or expired)
//   - UPL001-UPL003: Request errors (busy, cancelled, timeout)
//   - ERR000: Unknown error (check logs)
package core
