package core

// Weekdays in display order.
var Weekdays = []string{"lunes", "martes", "miércoles", "jueves", "viernes", "sábado", "domingo"}

var weekdayIndexes = map[string]int{
	"lunes":     1,
	"martes":    2,
	"miercoles": 3,
	"jueves":    4,
	"viernes":   5,
	"sabado":    6,
	"domingo":   7,
}

// WeekdayIndex returns the 1-based position of `day` in the week (lunes = 1),
// ignoring case and accents. Unknown days return 0.
func WeekdayIndex(day string) int {
	return weekdayIndexes[Fold(day)]
}
