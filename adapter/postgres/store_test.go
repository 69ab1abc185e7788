package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestConnectionFailure(t *testing.T) {
	assert.True(t, connectionFailure(driver.ErrBadConn))
	assert.True(t, connectionFailure(fmt.Errorf("exec: %w", driver.ErrBadConn)))
	assert.True(t, connectionFailure(&pq.Error{Code: "08006"}), "connection_failure")
	assert.True(t, connectionFailure(&pq.Error{Code: "08000"}), "connection_exception")

	assert.False(t, connectionFailure(&pq.Error{Code: "23505"}), "unique_violation stays per-row")
	assert.False(t, connectionFailure(&pq.Error{Code: "22001"}), "string_data_right_truncation stays per-row")
	assert.False(t, connectionFailure(errors.New("row rejected")))
	assert.False(t, connectionFailure(nil))
}
