package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout はJSONとCSVで使う日付の書式です。
const DateLayout = "2006-01-02"

// 受け付ける年の範囲。0001-01-01はtime.Timeのゼロ値と区別できないため除外します。
const (
	MinYear = 1000
	MaxYear = 9999
)

// MaxRangeDays はプロジェクト期間の最大日数です（約10年）。
const MaxRangeDays = 3660

// Date は時刻を持たない暦日です。ゼロ値は「未設定」を表します。
type Date struct {
	t time.Time
}

// NewDate は年月日からDateを生成します。
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf は時刻を切り捨てて日付に変換します。
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate はYYYY-MM-DDまたはRFC 3339形式の文字列を解析します。
// 空文字列はゼロ値を返します。
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := parseDateTime(s)
	if err != nil {
		return Date{}, NewValidationError(fmt.Sprintf("invalid date %q: use YYYY-MM-DD", s))
	}
	if t.Year() < MinYear || t.Year() > MaxYear {
		return Date{}, NewValidationError(fmt.Sprintf("invalid date %q: year must be between %d and %d", s, MinYear, MaxYear))
	}
	return DateOf(t), nil
}

// MustParseDate はParseDateの結果を返し、失敗した場合はpanicします。
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// parseDateTime は複数の形式で日付文字列を解析します。
func parseDateTime(dateStr string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, dateStr); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unable to parse date")
}

// IsZero は未設定かどうかを返します。
func (d Date) IsZero() bool { return d.t.IsZero() }

// Time はUTCの0時を返します。
func (d Date) Time() time.Time { return d.t }

// String はYYYY-MM-DD形式の文字列を返します。未設定の場合は空文字列です。
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Before はdがoより前の日付かどうかを返します。
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After はdがoより後の日付かどうかを返します。
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Equal は同じ日付かどうかを返します。
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// AddDays はn日後の日付を返します。
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysUntil はdからoまでの日数を返します。oが前の場合は負の値です。
// time.Durationは約292年で飽和するため、Unix秒で計算します。
func (d Date) DaysUntil(o Date) int {
	return int((o.t.Unix() - d.t.Unix()) / 86400)
}

// MarshalJSON はYYYY-MM-DD形式の文字列にエンコードします。
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON は文字列をParseDateで解析します。
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return NewValidationError("date must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange はプロジェクト期間です。StartからEndまでの各日（両端を含む）が列になります。
type DateRange struct {
	Start Date
	End   Date
}

// NewDateRange はバリデーションを行い、DateRangeを生成します。
func NewDateRange(start, end Date) (DateRange, error) {
	r := DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate は開始日・終了日の有無、前後関係、期間の長さを検証します。
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return NewValidationError("start and end dates are required")
	}
	if r.Start.After(r.End) {
		return NewValidationError("start date must not be after end date")
	}
	if r.Len() > MaxRangeDays {
		return NewValidationError(fmt.Sprintf("date range must not exceed %d days", MaxRangeDays))
	}
	return nil
}

// IsZero は期間が未設定かどうかを返します。
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() || r.End.IsZero()
}

// Len は期間の日数を返します。
func (r DateRange) Len() int {
	if r.IsZero() || r.Start.After(r.End) {
		return 0
	}
	return r.Start.DaysUntil(r.End) + 1
}

// Days は期間内の全日付を返します。
func (r DateRange) Days() []Date {
	n := r.Len()
	days := make([]Date, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, r.Start.AddDays(i))
	}
	return days
}

// Index はdの列番号を返します。期間外の場合は-1です。
func (r DateRange) Index(d Date) int {
	if d.IsZero() || !r.Contains(d) {
		return -1
	}
	return r.Start.DaysUntil(d)
}

// Contains はdが期間内かどうかを返します。
func (r DateRange) Contains(d Date) bool {
	if r.Len() == 0 || d.IsZero() {
		return false
	}
	return !d.Before(r.Start) && !d.After(r.End)
}

// At はi番目の日付を返します。
func (r DateRange) At(i int) Date {
	return r.Start.AddDays(i)
}

// MarshalJSON は[start, end]の配列にエンコードします。未設定の場合は[]です。
func (r DateRange) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("[]"), nil
	}
	return json.Marshal([]string{r.Start.String(), r.End.String()})
}

// UnmarshalJSON は[]、または先頭2要素が日付の配列を受け付けます。
func (r *DateRange) UnmarshalJSON(b []byte) error {
	var values []string
	if err := json.Unmarshal(b, &values); err != nil {
		return NewValidationError("dates must be an array of [start, end]")
	}
	if len(values) < 2 {
		*r = DateRange{}
		return nil
	}
	start, err := ParseDate(values[0])
	if err != nil {
		return err
	}
	end, err := ParseDate(values[1])
	if err != nil {
		return err
	}
	*r = DateRange{Start: start, End: end}
	return nil
}
