// Package security はユーザー入力の自由記述テキストを無害化する。
//
// bluemondayの許可リストベースのポリシーで、保存前にタグやイベント属性を除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer は自由記述テキストのサニタイズ機能のインターフェース。
// 同一入力に対して常に同一出力を返す（冪等）。
type Sanitizer interface {
	Sanitize(raw string) string
}

// plainEntities はプレーンテキストとして安全な実体参照のみを元に戻す。
// &lt; &gt; はタグとして再解釈されないようエスケープのまま残す。
var plainEntities = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`, "&quot;", `"`)

// textSanitizer は全てのタグを除去し、プレーンテキストとして返す。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer は名前・タイトル・通知本文・住所などに使うSanitizerを生成する。
// タグは全て除去し、& と引用符のエスケープは元の文字に戻す。
func NewTextSanitizer() Sanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はタグを除去した前後空白なしの文字列を返す。
func (s *textSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(plainEntities.Replace(s.policy.Sanitize(raw)))
}

// descriptionSanitizer は簡易な書式タグのみ許可する。
type descriptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewDescriptionSanitizer は料理やカテゴリの説明文に使うSanitizerを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, ul, ol, li, strong, em
//   - script, iframe, style, a, img 等は除去
//   - on*イベント属性は除去
func NewDescriptionSanitizer() Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")
	return &descriptionSanitizer{policy: p}
}

// Sanitize は許可タグ以外を除去した文字列を返す。
func (s *descriptionSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
