package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapDBError(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
	assert.True(t, IsTimeout(MapDBError(fmt.Errorf("q: %w", context.DeadlineExceeded))))
	assert.Equal(t, ErrCodeCanceled, GetCode(MapDBError(context.Canceled)))
	assert.True(t, IsNotFound(MapDBError(sql.ErrNoRows)))

	plain := errors.New("plain")
	assert.Same(t, plain, MapDBError(plain))
}

func TestMapDBError_PgCodes(t *testing.T) {
	unique := MapDBError(&pgconn.PgError{
		Code:   pgerrcode.UniqueViolation,
		Detail: "Key (platform_video_id)=(123) already exists.",
	})
	assert.True(t, IsConflict(unique))
	assert.Equal(t, "platform_video_id", GetField(unique))

	fk := MapDBError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "trend_queries"})
	assert.Equal(t, ErrCodeForeignKey, GetCode(fk))
	assert.Contains(t, fk.Error(), "Trend query")

	videoFK := MapDBError(&pgconn.PgError{
		Code:           pgerrcode.ForeignKeyViolation,
		TableName:      "videos",
		ConstraintName: "videos_trend_query_id_fkey",
	})
	assert.Equal(t, ErrCodeForeignKey, GetCode(videoFK))
	assert.Equal(t, "trend_query_id", GetField(videoFK))
	assert.Contains(t, videoFK.Error(), "The referenced trend query does not exist.")

	check := MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "email_time_hour"})
	assert.True(t, IsValidation(check))
	assert.Equal(t, "email_time_hour", GetField(check))

	other := MapDBError(&pgconn.PgError{Code: pgerrcode.DiskFull})
	assert.Equal(t, ErrCodeInternal, GetCode(other))
}

func TestAppErrorWrapping(t *testing.T) {
	cause := errors.New("503")
	err := Upstream(cause, "summarizer failed")
	assert.True(t, IsUpstream(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "summarizer failed: 503", err.Error())
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "x"))
	assert.Equal(t, "video 7 not found", NotFoundf("video %s not found", "7").Error())
	assert.True(t, IsValidation(ValidationField("userId", "required")))
}
