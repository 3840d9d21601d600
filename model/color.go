package model

import "unicode/utf16"

// Palette は色が未指定のオーダーに使うバーの色です。
var Palette = []string{
	"rgb(59, 130, 246)",  // blue
	"rgb(16, 185, 129)",  // green
	"rgb(139, 92, 246)",  // purple
	"rgb(245, 158, 11)",  // orange
	"rgb(239, 68, 68)",   // red
	"rgb(6, 182, 212)",   // cyan
	"rgb(132, 204, 22)",  // lime
	"rgb(236, 72, 153)",  // pink
	"rgb(168, 85, 247)",  // violet
	"rgb(249, 115, 22)",  // amber
	"rgb(34, 197, 94)",   // emerald
	"rgb(14, 165, 233)",  // sky
}

// TaskColor はexplicitが空でなければそれを返し、空ならラベルのハッシュでパレットから選びます。
// resourceは結果に影響しません。
func TaskColor(label, resource, explicit string) string {
	if explicit != "" {
		return explicit
	}
	h := int64(labelHash(label))
	if h < 0 {
		h = -h
	}
	return Palette[h%int64(len(Palette))]
}

// labelHash はUTF-16コード単位に対する31倍ハッシュです（32bit符号付きで折り返す）。
func labelHash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return h
}
