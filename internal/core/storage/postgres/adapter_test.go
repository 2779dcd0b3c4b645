package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/qrpulse/qrpulse/internal/core/storage"
	"github.com/stretchr/testify/require"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAdapter(db, ""), mock
}

func TestAdapter_ReadReturnsBody(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryReadSnapshot)).
		WithArgs(DefaultSnapshotName).
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow([]byte(`{"click_data":{}}`)))

	body, err := adapter.Read(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, `{"click_data":{}}`, string(body))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ReadMissingRowIsNotFound(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryReadSnapshot)).
		WithArgs(DefaultSnapshotName).
		WillReturnRows(sqlmock.NewRows([]string{"body"}))

	_, err := adapter.Read(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ReadQueryErrorIsWrapped(t *testing.T) {
	adapter, mock := newMockAdapter(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(queryReadSnapshot)).
		WithArgs(DefaultSnapshotName).
		WillReturnError(boom)

	_, err := adapter.Read(context.Background())
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestAdapter_WriteUpsertsNamedRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 2, 22, 12, 0, 0, 0, time.UTC)
	adapter := NewAdapter(db, "qr-prod")
	adapter.nowFn = func() time.Time { return now }

	body := []byte(`{"version":1,"click_data":{}}`)
	mock.ExpectExec(regexp.QuoteMeta(queryWriteSnapshot)).
		WithArgs("qr-prod", body, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.Write(context.Background(), body))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ValidateSchema(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(querySnapshotTableExists)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := adapter.ValidateSchema(context.Background())
	require.ErrorContains(t, err, "click_snapshots table does not exist")
	require.NoError(t, mock.ExpectationsWereMet())
}
