package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff"
	// sql drivers
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/asset"
	"github.com/thrasher-corp/blotter/log"
	"github.com/thrasher-corp/blotter/order"
	"github.com/volatiletech/null"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS checkpoint_run
(
    run_id       varchar(255) PRIMARY KEY NOT NULL,
    saved_at     bigint       NOT NULL,
    next_id      bigint       NOT NULL,
    policy_state text
);`,
	`CREATE TABLE IF NOT EXISTS checkpoint_order
(
    run_id        varchar(255) NOT NULL,
    id            bigint       NOT NULL,
    custom_id     text,
    sid           bigint       NOT NULL,
    symbol        varchar(64)  NOT NULL,
    tick_size     text         NOT NULL,
    auto_close    bigint,
    amount        text         NOT NULL,
    remaining     text         NOT NULL,
    filled        text         NOT NULL,
    commission    text         NOT NULL,
    style         varchar(16)  NOT NULL,
    limit_price   text,
    stop_price    text,
    status        varchar(16)  NOT NULL,
    reason        text,
    stop_reached  boolean      NOT NULL,
    limit_reached boolean      NOT NULL,
    created       bigint       NOT NULL,
    last_updated  bigint       NOT NULL,
    PRIMARY KEY (run_id, id)
);`,
	`CREATE TABLE IF NOT EXISTS checkpoint_transaction
(
    run_id     varchar(255) NOT NULL,
    seq        bigint       NOT NULL,
    id         varchar(36)  NOT NULL,
    order_id   bigint       NOT NULL,
    amount     text         NOT NULL,
    price      text         NOT NULL,
    tx_time    bigint       NOT NULL,
    commission text         NOT NULL,
    PRIMARY KEY (run_id, seq)
);`,
}

// OpenSQL connects to sqlite3 or postgres, retrying with exponential backoff
// until the database answers, and creates the checkpoint tables
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", errUnsupportedDriver, driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	boff := backoff.NewExponentialBackOff()
	boff.MaxElapsedTime = DefaultConnectTimeout
	err = backoff.Retry(func() error {
		pingErr := db.PingContext(ctx)
		if pingErr != nil {
			log.Warnf(log.Checkpoint, "%s ping failed, retrying: %v", driver, pingErr)
		}
		return pingErr
	}, backoff.WithContext(boff, ctx))
	if err != nil {
		db.Close()
		return nil, err
	}
	s := &SQLStore{db: db, driver: driver, q: queriesFor(driver)}
	for _, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			db.Close()
			return nil, err
		}
	}
	log.Debugf(log.Checkpoint, "%s checkpoint store ready", driver)
	return s, nil
}

// Save replaces any stored checkpoint of the run inside one transaction
func (s *SQLStore) Save(ctx context.Context, st *State) (err error) {
	if err = validRunID(st.RunID); err != nil {
		return err
	}
	policy := null.String{}
	if len(st.Policy) > 0 {
		raw, err := json.Marshal(st.Policy)
		if err != nil {
			return err
		}
		policy = null.StringFrom(string(raw))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Errorf(log.Checkpoint, "rollback run %s: %v", st.RunID, rbErr)
			}
		}
	}()
	for _, q := range []string{s.q.deleteTransactions, s.q.deleteOrders, s.q.deleteRun} {
		if _, err = tx.ExecContext(ctx, q, st.RunID); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx,
		s.q.insertRun,
		st.RunID, nanos(st.Time), st.NextID, policy); err != nil {
		return err
	}

	orderStmt, err := tx.PrepareContext(ctx, s.q.insertOrder)
	if err != nil {
		return err
	}
	defer orderStmt.Close()
	for i := range st.Orders {
		o := &st.Orders[i]
		if _, err = orderStmt.ExecContext(ctx,
			st.RunID, o.ID, nullString(o.CustomID), o.Asset.SID, o.Asset.Symbol, o.Asset.TickSize.String(),
			nullNanos(o.Asset.AutoCloseDate.IsZero(), nanos(o.Asset.AutoCloseDate)),
			o.Amount.String(), o.Remaining.String(), o.Filled.String(), o.Commission.String(),
			string(o.Style.Type), nullDecimal(o.Style.LimitPrice), nullDecimal(o.Style.StopPrice),
			string(o.Status), nullString(o.Reason), o.StopReached, o.LimitReached,
			nanos(o.Created), nanos(o.LastUpdated)); err != nil {
			return fmt.Errorf("order %d: %w", o.ID, err)
		}
	}

	txStmt, err := tx.PrepareContext(ctx, s.q.insertTransaction)
	if err != nil {
		return err
	}
	defer txStmt.Close()
	for i := range st.Transactions {
		t := &st.Transactions[i]
		if _, err = txStmt.ExecContext(ctx, st.RunID, i, t.ID, t.OrderID,
			t.Amount.String(), t.Price.String(), nanos(t.Time), t.Commission.String()); err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// Load reads the checkpoint of a run
func (s *SQLStore) Load(ctx context.Context, runID string) (*State, error) {
	if err := validRunID(runID); err != nil {
		return nil, err
	}
	st := &State{RunID: runID}
	var (
		savedAt int64
		policy  null.String
	)
	err := s.db.QueryRowContext(ctx,
		s.q.selectRun, runID).
		Scan(&savedAt, &st.NextID, &policy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	st.Time = fromNanos(savedAt)
	if policy.Valid {
		if err = json.Unmarshal([]byte(policy.String), &st.Policy); err != nil {
			return nil, err
		}
	}
	if st.Orders, err = s.loadOrders(ctx, runID); err != nil {
		return nil, err
	}
	if st.Transactions, err = s.loadTransactions(ctx, runID, st.Orders); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *SQLStore) loadOrders(ctx context.Context, runID string) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, s.q.selectOrders, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		var (
			o                                        order.Order
			customID, reason, limitPrice, stopPrice  null.String
			autoClose                                null.Int64
			tick, amount, remaining, filled, commish string
			style, status                            string
			created, updated                         int64
		)
		if err = rows.Scan(&o.ID, &customID, &o.Asset.SID, &o.Asset.Symbol, &tick, &autoClose,
			&amount, &remaining, &filled, &commish, &style, &limitPrice, &stopPrice, &status, &reason,
			&o.StopReached, &o.LimitReached, &created, &updated); err != nil {
			return nil, err
		}
		o.CustomID = customID.String
		o.Reason = reason.String
		o.Style.Type = order.Type(style)
		o.Status = order.Status(status)
		o.Created = fromNanos(created)
		o.LastUpdated = fromNanos(updated)
		if autoClose.Valid {
			o.Asset.AutoCloseDate = fromNanos(autoClose.Int64)
		}
		decimals := []struct {
			dst *decimal.Decimal
			raw null.String
		}{
			{&o.Asset.TickSize, null.StringFrom(tick)},
			{&o.Amount, null.StringFrom(amount)},
			{&o.Remaining, null.StringFrom(remaining)},
			{&o.Filled, null.StringFrom(filled)},
			{&o.Commission, null.StringFrom(commish)},
			{&o.Style.LimitPrice, limitPrice},
			{&o.Style.StopPrice, stopPrice},
		}
		for _, d := range decimals {
			if !d.raw.Valid {
				continue
			}
			if *d.dst, err = decimal.NewFromString(d.raw.String); err != nil {
				return nil, fmt.Errorf("order %d: %w", o.ID, err)
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) loadTransactions(ctx context.Context, runID string, orders []order.Order) ([]order.Transaction, error) {
	assets := make(map[int64]asset.Item, len(orders))
	for i := range orders {
		assets[orders[i].ID] = orders[i].Asset
	}
	rows, err := s.db.QueryContext(ctx, s.q.selectTransactions, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Transaction
	for rows.Next() {
		var (
			t                         order.Transaction
			amount, price, commission string
			at                        int64
		)
		if err = rows.Scan(&t.ID, &t.OrderID, &amount, &price, &at, &commission); err != nil {
			return nil, err
		}
		t.Asset = assets[t.OrderID]
		t.Time = fromNanos(at)
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if t.Commission, err = decimal.NewFromString(commission); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Close closes the database handle
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func nullDecimal(d decimal.Decimal) null.String {
	if d.IsZero() {
		return null.String{}
	}
	return null.StringFrom(d.String())
}

func nullNanos(isNull bool, n int64) null.Int64 {
	return null.NewInt64(n, !isNull)
}
