package util

import (
	"fmt"
	"regexp"
	"strconv"
)

var monthPattern = regexp.MustCompile(`(\d{4})年(\d{1,2})月`)

// ParseMonth extracts the bulletin month from a title such as
// "2024年3月份70个大中城市商品住宅销售价格变动情况" and returns it as "2024-03".
func ParseMonth(title string) (string, bool) {
	m := monthPattern.FindStringSubmatch(CleanText(title))
	if m == nil {
		return "", false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(m[2])
	if err != nil || month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d", year, month), true
}
