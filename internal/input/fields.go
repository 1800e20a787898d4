// Package input はJSONリクエストボディを緩い型のフィールドマップとして扱う。
// 数値項目は数値・数値文字列のどちらでも受け付け、金額は小数点以下2桁に正規化する。
package input

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/foodapi/internal/model"
)

// ErrNotNumeric は数値として解釈できない値の場合に返される。
var ErrNotNumeric = errors.New("value is not numeric")

// ErrNotBoolean は真偽値として解釈できない値の場合に返される。
var ErrNotBoolean = errors.New("value is not boolean")

// Fields はリクエストボディのキーと値の組。
type Fields map[string]any

// Decode はJSONオブジェクトをFieldsとして読み込む。
// 空ボディは空のFieldsとして扱う。
func Decode(r io.Reader) (Fields, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Fields{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var f Fields
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode request body: %w", err)
	}
	if f == nil {
		f = Fields{}
	}
	return f, nil
}

// Has はキーが存在し、値がnullでないかを返す。
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

// Missing は指定キーのうち、未指定・null・空白のみのものを順に返す。
func (f Fields) Missing(keys ...string) []string {
	var missing []string
	for _, k := range keys {
		s, ok := f.Text(k)
		if !ok || strings.TrimSpace(s) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// Text はキーの値を文字列として返す。
// 数値と真偽値は文字列表現に変換する。未指定またはnullの場合はokがfalse。
func (f Fields) Text(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// String は前後の空白を除いたキーの値を返す。未指定またはnullの場合は空文字。
func (f Fields) String(key string) string {
	s, _ := f.Text(key)
	return strings.TrimSpace(s)
}

// Optional はキーが指定されていれば前後の空白を除いた値へのポインタを返す。
// 未指定またはnullの場合はnil。
func (f Fields) Optional(key string) *string {
	s, ok := f.Text(key)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

// Int64 はキーの値を整数として返す。
// 未指定またはnullの場合はpresentがfalse。整数として解釈できない場合はErrNotNumeric。
func (f Fields) Int64(key string) (value int64, present bool, err error) {
	s, ok := f.Text(key)
	if !ok {
		return 0, false, nil
	}
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true, nil
	}
	// 1.0 のような整数値の浮動小数点表記は受け付ける
	fl, err := strconv.ParseFloat(s, 64)
	if err != nil || fl != math.Trunc(fl) || math.IsInf(fl, 0) {
		return 0, true, ErrNotNumeric
	}
	// 2^63 はfloat64で表せるがint64の範囲外
	if fl < math.MinInt64 || fl >= math.MaxInt64 {
		return 0, true, ErrNotNumeric
	}
	return int64(fl), true, nil
}

// Float はキーの値を浮動小数点数として返す。
func (f Fields) Float(key string) (value float64, present bool, err error) {
	s, ok := f.Text(key)
	if !ok {
		return 0, false, nil
	}
	fl, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(fl) || math.IsInf(fl, 0) {
		return 0, true, ErrNotNumeric
	}
	return fl, true, nil
}

// Money はキーの値を金額として小数点以下2桁に正規化して返す。
// 丸めは入力の10進表記に対して行い、0.5は0から遠い方へ丸める。
func (f Fields) Money(key string) (value model.Money, present bool, err error) {
	if _, present, err = f.Float(key); !present || err != nil {
		return "", present, err
	}
	s, _ := f.Text(key)
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return "", true, ErrNotNumeric
	}
	return formatDecimal(d), true, nil
}

// Bool はキーの値を真偽値として返す。true/false、1/0、"true"/"false"、"1"/"0" を受け付ける。
func (f Fields) Bool(key string) (value bool, present bool, err error) {
	s, ok := f.Text(key)
	if !ok {
		return false, false, nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, true, nil
	case "false", "0", "":
		return false, true, nil
	default:
		return false, true, ErrNotBoolean
	}
}

// FormatMoney は金額を四捨五入して小数点以下2桁の文字列にする。
// 浮動小数点数は最短の10進表記として扱うため、1.005は1.01になる。
func FormatMoney(v float64) model.Money {
	return formatDecimal(decimal.NewFromFloat(v))
}

func formatDecimal(d decimal.Decimal) model.Money {
	return model.Money(d.Round(2).StringFixed(2))
}

// ParseMoney は正規化済みの金額文字列を数値に戻す。
func ParseMoney(m model.Money) (float64, error) {
	v, err := strconv.ParseFloat(string(m), 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	return v, nil
}
