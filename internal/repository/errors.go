package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound は更新・削除対象の行が存在しない場合に返される。
var ErrNotFound = errors.New("record not found")

// uniqueViolation はPostgreSQLのunique_violationエラーコード。
const uniqueViolation = "23505"

// constraintFields は一意制約名と入力フィールド名の対応。
var constraintFields = map[string]string{
	"users_username_key":             "username",
	"users_email_key":                "email",
	"managers_name_key":              "name",
	"managers_email_key":             "email",
	"categories_name_key":            "name",
	"cart_items_cart_id_food_id_key": "food_id",
}

// UniqueViolationError は一意制約違反を表す。
// Fieldには違反した制約に対応する入力フィールド名が入る。
type UniqueViolationError struct {
	Constraint string
	Field      string
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique violation on %s (%s)", e.Field, e.Constraint)
}

// Unwrap は元のドライバエラーを返す。
func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

// translateError はドライバエラーをリポジトリのエラー型に変換する。
// 一意制約違反以外はそのまま返す。
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return &UniqueViolationError{
			Constraint: pqErr.Constraint,
			Field:      constraintFields[pqErr.Constraint],
			Err:        err,
		}
	}
	return err
}

// AsUniqueViolation はerrが一意制約違反であればその詳細を返す。
func AsUniqueViolation(err error) (*UniqueViolationError, bool) {
	var uv *UniqueViolationError
	if errors.As(err, &uv) {
		return uv, true
	}
	return nil, false
}
