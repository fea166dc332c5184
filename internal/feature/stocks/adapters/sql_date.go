package adapters

import (
	"fmt"
	"time"
)

// sqliteTimeLayouts はドライバが型を付けられない場合（MAX(date) など）に
// 日付列が返ってくる文字列形式です。
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	time.DateTime,
	time.DateOnly,
}

// sqlDate は NULL になりうる日付を time 値または文字列から読み取ります。
// 結果は UTC の0時に正規化します。
type sqlDate struct {
	Time *time.Time
}

func (d *sqlDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = nil
		return nil
	case time.Time:
		t := dateOnly(v)
		d.Time = &t
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	default:
		return fmt.Errorf("sqlDate: unsupported type %T", src)
	}
}

func (d *sqlDate) parse(s string) error {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = dateOnly(t)
			d.Time = &t
			return nil
		}
	}
	return fmt.Errorf("sqlDate: cannot parse %q", s)
}
