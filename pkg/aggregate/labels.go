package aggregate

import (
	"fmt"
	"strings"
	"time"
)

// DayLabeler renders the label of a daily bucket
type DayLabeler func(day time.Time) string

var arabicMonths = [...]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

// EnglishDayLabel renders "Jan 2"
func EnglishDayLabel(day time.Time) string {
	return day.Format("Jan 2")
}

// ArabicDayLabel renders "2 يناير"
func ArabicDayLabel(day time.Time) string {
	return fmt.Sprintf("%d %s", day.Day(), arabicMonths[day.Month()-1])
}

// LabelerFor picks a day labeler from a locale such as "ar", "ar-EG" or "en"
func LabelerFor(locale string) DayLabeler {
	if strings.HasPrefix(strings.ToLower(locale), "ar") {
		return ArabicDayLabel
	}
	return EnglishDayLabel
}
