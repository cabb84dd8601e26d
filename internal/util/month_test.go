package util

import "testing"

func TestParseMonth(t *testing.T) {
	cases := []struct {
		title string
		want  string
		ok    bool
	}{
		{title: "2024年3月份70个大中城市商品住宅销售价格变动情况", want: "2024-03", ok: true},
		{title: "<em>2023年12月</em>份70个大中城市", want: "2023-12", ok: true},
		{title: "2019年1月", want: "2019-01", ok: true},
		{title: "国家统计局解读", ok: false},
		{title: "2024年13月", ok: false},
		{title: "", ok: false},
	}

	for _, tc := range cases {
		got, ok := ParseMonth(tc.title)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseMonth(%q) = %q,%v want %q,%v", tc.title, got, ok, tc.want, tc.ok)
		}
	}
}
