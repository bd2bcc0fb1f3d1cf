package checkpoint

// sqlQueries holds the statements of one SQL dialect
type sqlQueries struct {
	deleteTransactions, deleteOrders, deleteRun string
	insertRun, insertOrder, insertTransaction  string
	selectRun, selectOrders, selectTransactions string
}

// sqliteQueries use sqlite3 ? placeholders
var sqliteQueries = sqlQueries{
	deleteTransactions: "DELETE FROM checkpoint_transaction WHERE run_id = ?",
	deleteOrders:       "DELETE FROM checkpoint_order WHERE run_id = ?",
	deleteRun:          "DELETE FROM checkpoint_run WHERE run_id = ?",
	insertRun:          "INSERT INTO checkpoint_run (run_id, saved_at, next_id, policy_state) VALUES (?, ?, ?, ?)",
	insertOrder:        `INSERT INTO checkpoint_order
(run_id, id, custom_id, sid, symbol, tick_size, auto_close, amount, remaining, filled, commission,
 style, limit_price, stop_price, status, reason, stop_reached, limit_reached, created, last_updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	insertTransaction:  `INSERT INTO checkpoint_transaction
(run_id, seq, id, order_id, amount, price, tx_time, commission) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	selectRun:          "SELECT saved_at, next_id, policy_state FROM checkpoint_run WHERE run_id = ?",
	selectOrders:       `SELECT id, custom_id, sid, symbol, tick_size, auto_close,
amount, remaining, filled, commission, style, limit_price, stop_price, status, reason,
stop_reached, limit_reached, created, last_updated
FROM checkpoint_order WHERE run_id = ? ORDER BY id`,
	selectTransactions: `SELECT id, order_id, amount, price, tx_time, commission
FROM checkpoint_transaction WHERE run_id = ? ORDER BY seq`,
}

// postgresQueries use numbered postgres placeholders
var postgresQueries = sqlQueries{
	deleteTransactions: "DELETE FROM checkpoint_transaction WHERE run_id = $1",
	deleteOrders:       "DELETE FROM checkpoint_order WHERE run_id = $1",
	deleteRun:          "DELETE FROM checkpoint_run WHERE run_id = $1",
	insertRun:          "INSERT INTO checkpoint_run (run_id, saved_at, next_id, policy_state) VALUES ($1, $2, $3, $4)",
	insertOrder:        `INSERT INTO checkpoint_order
(run_id, id, custom_id, sid, symbol, tick_size, auto_close, amount, remaining, filled, commission,
 style, limit_price, stop_price, status, reason, stop_reached, limit_reached, created, last_updated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
	insertTransaction:  `INSERT INTO checkpoint_transaction
(run_id, seq, id, order_id, amount, price, tx_time, commission) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	selectRun:          "SELECT saved_at, next_id, policy_state FROM checkpoint_run WHERE run_id = $1",
	selectOrders:       `SELECT id, custom_id, sid, symbol, tick_size, auto_close,
amount, remaining, filled, commission, style, limit_price, stop_price, status, reason,
stop_reached, limit_reached, created, last_updated
FROM checkpoint_order WHERE run_id = $1 ORDER BY id`,
	selectTransactions: `SELECT id, order_id, amount, price, tx_time, commission
FROM checkpoint_transaction WHERE run_id = $1 ORDER BY seq`,
}

func queriesFor(driver string) *sqlQueries {
	if driver == DriverPostgres {
		return &postgresQueries
	}
	return &sqliteQueries
}
