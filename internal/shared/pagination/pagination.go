// Package pagination は page/limit の入力を正規化し、ページ情報を計算します。
package pagination

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultPage は page が未指定・不正なときの値です。
	DefaultPage = 1
	// DefaultLimit は limit が未指定・0・不正なときの値です。
	DefaultLimit = 50
	// MaxLimit は1ページあたりの件数の上限です。
	MaxLimit = 100
	// MaxPage はページ番号の上限です。Offset が int をあふれないように抑えます。
	MaxPage = 1_000_000
)

// Params は正規化済みのページ指定です。
type Params struct {
	Page  int
	Limit int
}

// Offset はページ先頭の行オフセットを返します。
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta は結果全体の中でのページ位置を表します。
type Meta struct {
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int   `json:"totalPages"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

// Normalize はクエリ文字列を解釈します。page は [1, MaxPage]、limit は
// [1, MaxLimit] に収めます。0 や数値として読めない値はデフォルトになります。
func Normalize(rawPage, rawLimit string) Params {
	return NormalizeWithDefault(rawPage, rawLimit, DefaultLimit)
}

// NormalizeWithDefault は既定のページサイズを指定できる Normalize です。
func NormalizeWithDefault(rawPage, rawLimit string, defaultLimit int) Params {
	page := clamp(parseOr(rawPage, DefaultPage), 1, MaxPage)
	limit := clamp(parseOr(rawLimit, defaultLimit), 1, MaxLimit)
	return Params{Page: page, Limit: limit}
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}

// parseOr は先頭の整数部分だけを読みます（"1.5" は 1、"10abc" は 10）。
// 数字が無い場合と 0 の場合は fallback を返します。
func parseOr(raw string, fallback int) int {
	s := strings.TrimLeft(raw, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return fallback
	}

	n, err := strconv.Atoi(s[:end])
	if errors.Is(err, strconv.ErrRange) {
		// 桁あふれは符号に応じて飽和させ、呼び出し側の clamp に任せる
		if s[0] == '-' {
			return math.MinInt
		}
		return math.MaxInt
	}
	if err != nil || n == 0 {
		return fallback
	}
	return n
}

// NewMeta はページ指定と総件数から集計値を計算します。
func NewMeta(p Params, totalRecords int64) Meta {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = int((totalRecords + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Meta{
		Page:         p.Page,
		Limit:        p.Limit,
		TotalRecords: totalRecords,
		TotalPages:   totalPages,
		HasNext:      p.Page < totalPages,
		HasPrev:      p.Page > 1,
	}
}
