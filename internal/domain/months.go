package domain

// MonthTheme is one entry of the fixed holiday table.
type MonthTheme struct {
	Month   int
	Holiday string
	Scene   string // fragment completing "a <type> named <name> ..."
}

var months = [TotalMonths]MonthTheme{
	{1, "New Year's Day", "celebrating New Year's Day with party hats, confetti, and fireworks"},
	{2, "Valentine's Day", "surrounded by hearts and roses for Valentine's Day, with a cute love theme"},
	{3, "St. Patrick's Day", "wearing a tiny green hat for St. Patrick's Day, with shamrocks and gold"},
	{4, "Easter", "with colorful Easter eggs and spring flowers, wearing bunny ears"},
	{5, "Mother's Day", "with a bouquet of flowers for Mother's Day, in a soft spring setting"},
	{6, "Summer Solstice", "playing at the beach on a sunny summer day, splashing in waves"},
	{7, "Independence Day", "with American flags and fireworks for the 4th of July, patriotic and festive"},
	{8, "National Pet Day", "playing happily outdoors on National Pet Day, wearing a colorful bandana"},
	{9, "Back to School", "sitting next to school books and an apple, looking curious and studious"},
	{10, "Halloween", "wearing a cute Halloween costume with pumpkins and bats in the background"},
	{11, "Thanksgiving", "sitting at a cozy Thanksgiving table with autumn leaves, pumpkins, and harvest decorations"},
	{12, "Christmas", "wearing a Santa hat next to a decorated Christmas tree with wrapped presents and snowflakes"},
}

// Months returns the holiday table ordered by month number 1..12.
func Months() []MonthTheme {
	out := make([]MonthTheme, len(months))
	copy(out, months[:])
	return out
}
