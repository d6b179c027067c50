package postgres

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/vls-lab/ctf-server/internal/errs"
)

func TestNotificationRepo_MarkRead_OnlyOwner(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewNotificationRepo(db)

	id := uuid.Must(uuid.NewV4())
	owner := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE notifications SET read=true WHERE id=\$1 AND user_id=\$2`).
		WithArgs(id, owner).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := r.MarkRead(context.Background(), owner, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
