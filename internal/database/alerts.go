package database

import (
	"math"

	"deriv-alert-telegram-bot/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// InsertAlert saves a new untriggered alert and returns its id.
func InsertAlert(userID int64, instrument, condition string, price float64) (int64, error) {
	if !types.ValidCondition(condition) {
		return 0, errors.Errorf("invalid condition: %q", condition)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, errors.Errorf("invalid price: %v", price)
	}

	query := `
	INSERT INTO alerts (user_id, instrument, condition, price)
	VALUES (?, ?, ?, ?);`

	res, err := DB.Exec(query, userID, instrument, condition, price)
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert alert")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read inserted alert id")
	}

	log.Debugf("Alert inserted: ID: %d, UserID: %d, Instrument: %s, Condition: %s, Price: %f",
		id, userID, instrument, condition, price)
	return id, nil
}

// GetActiveAlerts fetches a user's untriggered alerts, ordered by id.
func GetActiveAlerts(userID int64) ([]types.Alert, error) {
	query := `
	SELECT id, user_id, instrument, condition, price, triggered, created_at
	FROM alerts WHERE user_id = ? AND triggered = 0 ORDER BY id ASC;`

	rows, err := DB.Query(query, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query alerts for user %d", userID)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// GetAllActiveAlerts fetches every untriggered alert, for the poller.
func GetAllActiveAlerts() ([]types.Alert, error) {
	query := `
	SELECT id, user_id, instrument, condition, price, triggered, created_at
	FROM alerts WHERE triggered = 0;`

	rows, err := DB.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query active alerts")
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// DeleteAlert removes an alert only when it belongs to userID and has not
// triggered. Returns whether a row was removed; a miss is not an error.
func DeleteAlert(userID, alertID int64) (bool, error) {
	query := `DELETE FROM alerts WHERE id = ? AND user_id = ? AND triggered = 0;`
	res, err := DB.Exec(query, alertID, userID)
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete alert %d", alertID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return n == 1, nil
}

// MarkTriggered flips an alert to triggered, but only if it still is not.
// The returned bool tells the caller whether it won the transition; under
// racing poll cycles exactly one caller sees true.
func MarkTriggered(alertID int64) (bool, error) {
	query := `UPDATE alerts SET triggered = 1 WHERE id = ? AND triggered = 0;`
	res, err := DB.Exec(query, alertID)
	if err != nil {
		return false, errors.Wrapf(err, "failed to mark alert %d triggered", alertID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return n == 1, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAlerts(rows rowScanner) ([]types.Alert, error) {
	var alerts []types.Alert
	for rows.Next() {
		var a types.Alert
		if err := rows.Scan(&a.ID, &a.UserID, &a.Instrument, &a.Condition, &a.Price, &a.Triggered, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan alert row")
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
