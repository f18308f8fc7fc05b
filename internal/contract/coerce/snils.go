package coerce

import (
	"fmt"
	"strconv"
)

const snilsDigits = 11

// Numbers up to 001-001-998 were issued before check digits were introduced.
const snilsChecksumFrom = 1001998

// FormatSNILS renders eleven digits as XXX-XXX-XXX YY.
func FormatSNILS(digits string) string {
	if len(digits) != snilsDigits {
		return digits
	}
	return fmt.Sprintf("%s-%s-%s %s", digits[0:3], digits[3:6], digits[6:9], digits[9:11])
}

// ValidSNILSChecksum checks the two control digits of an eleven digit SNILS.
func ValidSNILSChecksum(digits string) bool {
	if len(digits) != snilsDigits {
		return false
	}
	number, err := strconv.Atoi(digits[:9])
	if err != nil {
		return false
	}
	control, err := strconv.Atoi(digits[9:])
	if err != nil {
		return false
	}
	if number <= snilsChecksumFrom {
		return true
	}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(digits[i]-'0') * (9 - i)
	}
	return snilsControl(sum) == control
}

func snilsControl(sum int) int {
	switch {
	case sum < 100:
		return sum
	case sum == 100 || sum == 101:
		return 0
	}
	rem := sum % 101
	if rem == 100 {
		return 0
	}
	return rem
}
