package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var (
	backupCols = []string{"id", "uid", "text", "completed", "created_at", "deleted_at"}
	goalCols   = []string{"id", "uid", "text", "completed", "created_at"}
)

func TestGoalRepo_ListLive(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewGoalRepo(db)

	uid := uuid.Must(uuid.NewV4())
	id1, id2 := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	ts := time.Now().UTC()

	mock.ExpectQuery(q(`SELECT id, uid, text, completed, created_at FROM goals WHERE uid=$1`)).
		WithArgs(uid).
		WillReturnRows(pgxmock.NewRows(goalCols).
			AddRow(id1, uid, "Exercise", false, ts).
			AddRow(id2, uid, "Read", true, ts))

	out, err := r.ListLive(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, id1, out[0].ID)
	require.Equal(t, "Read", out[1].Text)
	require.True(t, out[1].Completed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepo_ListBackup_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewGoalRepo(db)
	uid := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(q(`FROM backup_goals WHERE uid=$1`)).
		WithArgs(uid).
		WillReturnRows(pgxmock.NewRows(backupCols))

	out, err := r.ListBackup(context.Background(), uid)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)
}

func TestGoalRepo_TextExists(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewGoalRepo(db)
	uid := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(q(`SELECT EXISTS (SELECT 1 FROM goals WHERE uid=$1 AND lower(text)=lower($2))`)).
		WithArgs(uid, "Read 20 pages").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := r.TextExists(context.Background(), uid, "Read 20 pages")
	require.NoError(t, err)
	require.True(t, ok)
}

const upsertSQL = `INSERT INTO goals (id, uid, text, completed, created_at) SELECT $1,$2,$3,$4,$5 WHERE NOT EXISTS (SELECT 1 FROM backup_goals WHERE id=$1) ON CONFLICT (id) DO UPDATE`

func TestGoalRepo_Upsert(t *testing.T) {
	g := model.Goal{ID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4()), Text: "x", CreatedAt: time.Now()}

	tests := []struct {
		name     string
		affected int64
		backedUp bool
		wantErr  error
	}{
		{name: "written", affected: 1},
		{name: "other owner", wantErr: errs.ErrPermissionDenied},
		{name: "in backup", backedUp: true, wantErr: errs.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newDB(t)
			defer mock.Close()
			r := NewGoalRepo(db)

			mock.ExpectExec(q(upsertSQL)).
				WithArgs(g.ID, g.UserID, g.Text, g.Completed, g.CreatedAt).
				WillReturnResult(pgxmock.NewResult("INSERT", tt.affected))
			if tt.affected == 0 {
				mock.ExpectQuery(q(`SELECT EXISTS (SELECT 1 FROM backup_goals WHERE id=$1)`)).
					WithArgs(g.ID).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(tt.backedUp))
			}

			err := r.Upsert(context.Background(), g)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGoalRepo_DeleteLive_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewGoalRepo(db)
	uid, id := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectExec(q(`DELETE FROM goals WHERE id=$1 AND uid=$2`)).
		WithArgs(id, uid).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.DeleteLive(context.Background(), uid, id), errs.ErrNotFound)
}

func TestGoalRepo_MoveToBackup_SingleTransaction(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewGoalRepo(db)

	now := time.Now().UTC()
	b := model.BackupGoal{
		Goal:      model.Goal{ID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4()), Text: "Exercise", CreatedAt: now},
		DeletedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO backup_goals (id, uid, text, completed, created_at, deleted_at)`)).
		WithArgs(b.ID, b.UserID, b.Text, b.Completed, b.CreatedAt, b.DeletedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q(`DELETE FROM goals WHERE id=$1 AND uid=$2`)).
		WithArgs(b.ID, b.UserID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, r.MoveToBackup(context.Background(), b))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepo_MoveToBackup_DeleteFailsRollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewGoalRepo(db)

	b := model.BackupGoal{Goal: model.Goal{ID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4()), Text: "x"}}

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO backup_goals`)).
		WithArgs(b.ID, b.UserID, b.Text, b.Completed, b.CreatedAt, b.DeletedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q(`DELETE FROM goals WHERE id=$1 AND uid=$2`)).
		WithArgs(b.ID, b.UserID).
		WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()

	require.Error(t, r.MoveToBackup(context.Background(), b))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepo_Restore_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewGoalRepo(db)

	uid, id := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	created := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`FROM backup_goals WHERE id=$1 AND uid=$2 FOR UPDATE`)).
		WithArgs(id, uid).
		WillReturnRows(pgxmock.NewRows(backupCols).AddRow(id, uid, "Read", true, created, created))
	mock.ExpectExec(q(`INSERT INTO goals (id, uid, text, completed, created_at)`)).
		WithArgs(id, uid, "Read", true, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q(`DELETE FROM backup_goals WHERE id=$1 AND uid=$2`)).
		WithArgs(id, uid).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	g, err := r.Restore(context.Background(), uid, id, now)
	require.NoError(t, err)
	require.Equal(t, id, g.ID)
	require.True(t, g.Completed)
	require.Equal(t, now, g.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepo_Restore_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewGoalRepo(db)
	uid, id := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectQuery(q(`FROM backup_goals WHERE id=$1 AND uid=$2 FOR UPDATE`)).
		WithArgs(id, uid).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := r.Restore(context.Background(), uid, id, time.Now())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGoalRepo_Archive_UsesDeletedAt(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewGoalRepo(db)

	uid, id, aid := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	deleted := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`FROM backup_goals WHERE id=$1 AND uid=$2 FOR UPDATE`)).
		WithArgs(id, uid).
		WillReturnRows(pgxmock.NewRows(backupCols).AddRow(id, uid, "Read", false, deleted, deleted))
	mock.ExpectExec(q(`INSERT INTO all_goals (id, uid, text, completed, originally_deleted_at, permanently_deleted_at)`)).
		WithArgs(aid, uid, "Read", false, deleted, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q(`DELETE FROM backup_goals WHERE id=$1 AND uid=$2`)).
		WithArgs(id, uid).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	a, err := r.Archive(context.Background(), uid, id, aid, now)
	require.NoError(t, err)
	require.Equal(t, "Read", a.Text)
	require.Equal(t, deleted, a.OriginallyDeletedAt)
	require.Equal(t, now, a.PermanentlyDeletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
