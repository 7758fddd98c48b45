// Package jobs persists processing jobs and their step-document version
// ledger in SQLite.
//
// Every status change goes through a compare-and-swap UPDATE guarded on the
// current status, so concurrent cancelation and worker reports linearize:
// the loser of a race observes zero affected rows and gets a Conflict
// instead of clobbering terminal state. Version ledger rows are append-only
// and dense per job; the append and the current_version advance happen in
// one transaction.
package jobs
