package storage

const (
	listSheetsSQL = `
SELECT id, user_password, name, month, year, created_at
FROM finance_sheets
WHERE user_password = ?
ORDER BY created_at ASC, rowid ASC`

	getSheetSQL = `
SELECT id, user_password, name, month, year, created_at
FROM finance_sheets
WHERE id = ?`

	insertSheetSQL = `
INSERT INTO finance_sheets (id, user_password, name, month, year, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

	deleteSheetEntriesSQL = `
DELETE FROM finance_entries
WHERE sheet_id IN (SELECT id FROM finance_sheets WHERE id = ? AND user_password = ?)`

	deleteSheetSQL = `
DELETE FROM finance_sheets
WHERE id = ? AND user_password = ?`

	listEntriesSQL = `
SELECT id, sheet_id, date, overview, amount, work
FROM finance_entries
WHERE sheet_id = ?
ORDER BY date ASC, created_at ASC, rowid ASC`

	getEntrySQL = `
SELECT id, sheet_id, date, overview, amount, work
FROM finance_entries
WHERE id = ?`

	insertEntrySQL = `
INSERT INTO finance_entries (id, sheet_id, date, overview, amount, work, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	updateEntrySQL = `
UPDATE finance_entries
SET overview = ?, amount = ?, work = ?
WHERE id = ?`

	deleteEntrySQL = `
DELETE FROM finance_entries
WHERE id = ?`
)
