package service

import "gorm.io/gorm"

// runTx wraps fn in a database transaction. When db is nil (unit tests with
// in-memory fakes) fn runs directly with a nil tx — the fake repositories
// ignore the tx handle.
func runTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.Transaction(fn)
}
